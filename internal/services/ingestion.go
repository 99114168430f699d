package services

import (
	"context"
	"strings"
	"sync"

	"github.com/huzaifa003/docuchat/internal/middleware"
	"github.com/huzaifa003/docuchat/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// IngestionPipeline drives the write path for one uploaded document:
// rasterize -> extract -> chunk -> one batch upsert into the vector
// index. Extraction failures are isolated per page; a degraded page just
// contributes zero chunks.
type IngestionPipeline struct {
	rasterizer PageRasterizer
	extractor  ContentExtractor
	index      VectorIndex
	mediaRoot  string
	rasterDPI  int
	workers    int
}

// NewIngestionPipeline creates a new ingestion pipeline
func NewIngestionPipeline(rasterizer PageRasterizer, extractor ContentExtractor, index VectorIndex, mediaRoot string, rasterDPI, workers int) *IngestionPipeline {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionPipeline{
		rasterizer: rasterizer,
		extractor:  extractor,
		index:      index,
		mediaRoot:  mediaRoot,
		rasterDPI:  rasterDPI,
		workers:    workers,
	}
}

// Ingest indexes the PDF at pdfPath for the given user and document and
// returns the number of chunks written. Zero chunks (an all-blank
// document) is success, not failure.
func (p *IngestionPipeline) Ingest(ctx context.Context, userID, documentID, pdfPath string) (int, error) {
	ctx, span := middleware.StartSpan(ctx, "Ingestion.Ingest",
		attribute.String("document_id", documentID),
	)
	defer span.End()

	pages, err := p.rasterizer.RenderPages(ctx, pdfPath, p.mediaRoot, p.rasterDPI, 0)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return 0, err
	}

	contents := p.extractAll(ctx, pages)

	// Chunks are assembled in page order; order inside the batch does not
	// affect retrieval (similarity-ranked), but it keeps the index
	// readable when inspected.
	var chunks []models.Chunk
	for i, rec := range pages {
		content := strings.TrimSpace(contents[i].Text())
		for idx, piece := range SplitForEmbedding(content, DefaultMaxChunkChars, DefaultChunkOverlap) {
			chunks = append(chunks, models.Chunk{
				Text:       piece,
				Page:       rec.Page,
				Source:     rec.Source,
				ImagePath:  rec.ImagePath,
				ChunkIndex: idx,
			})
		}
	}

	stored, err := p.index.Upsert(ctx, userID, documentID, chunks)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return 0, err
	}

	middleware.AddSpanEvent(ctx, "ingestion_completed",
		attribute.Int("pages", len(pages)),
		attribute.Int("chunks_indexed", stored),
	)

	return stored, nil
}

// extractAll runs page extraction with a bounded worker pool. Results
// land in a slice indexed by page position, so concurrency never
// reorders pages. Extraction has no error path by contract.
func (p *IngestionPipeline) extractAll(ctx context.Context, pages []models.PageRecord) []models.ExtractedContent {
	contents := make([]models.ExtractedContent, len(pages))
	if len(pages) == 0 {
		return contents
	}

	workers := p.workers
	if workers > len(pages) {
		workers = len(pages)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				contents[i] = p.extractor.Extract(ctx, pages[i].ImagePath)
			}
		}()
	}
	for i := range pages {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return contents
}
