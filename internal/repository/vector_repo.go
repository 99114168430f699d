package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/huzaifa003/docuchat/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Embedder turns text into vectors. Defined here because this package is
// the consumer; the OpenAI client satisfies it.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorRepositoryImpl is the vector index: chunks embedded into a
// pgvector column with the metadata every query filters on.
//
// user_id scoping lives inside the SQL here, not in the API layer. The
// index has no other access-control concept, so this is the whole
// multi-tenancy boundary.
type VectorRepositoryImpl struct {
	db       *gorm.DB
	embedder Embedder
}

// NewVectorRepository creates a new vector repository
func NewVectorRepository(db *gorm.DB, embedder Embedder) *VectorRepositoryImpl {
	return &VectorRepositoryImpl{db: db, embedder: embedder}
}

// Upsert embeds every chunk with non-blank text and appends the rows in
// one batch insert. Blank chunks are skipped and do not count toward the
// returned total. Row IDs are KSUIDs assigned per row, so concurrent
// upserts never collide.
func (r *VectorRepositoryImpl) Upsert(ctx context.Context, userID, documentID string, chunks []models.Chunk) (int, error) {
	kept := make([]models.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		text := strings.TrimSpace(ch.Text)
		if text == "" {
			continue
		}
		ch.Text = text
		kept = append(kept, ch)
		texts = append(texts, text)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	vectors, err := r.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(kept) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(kept), len(vectors))
	}

	rows := make([]*models.Embedding, len(kept))
	for i, ch := range kept {
		rows[i] = &models.Embedding{
			UserID:      userID,
			DocumentID:  documentID,
			Page:        ch.Page,
			Source:      ch.Source,
			ImagePath:   ch.ImagePath,
			ContentType: models.ContentTypePageImage,
			ChunkIndex:  ch.ChunkIndex,
			ChunkText:   ch.Text,
			Embedding:   pgvector.NewVector(vectors[i]),
		}
	}

	// Single batch insert: one statement, one transaction, so a
	// concurrent query never observes half of this batch.
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrIndexUnavailable, err)
	}

	return len(rows), nil
}

// Query embeds the text and runs a cosine nearest-neighbour search
// restricted to the user's entries and, when documentIDs is non-empty,
// to those documents. An empty result is a valid answer, never an error.
func (r *VectorRepositoryImpl) Query(ctx context.Context, userID, text string, topK int, documentIDs []string) ([]models.Hit, error) {
	if topK <= 0 {
		topK = 8
	}

	vectors, err := r.embedder.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vec := pgvector.NewVector(vectors[0])

	// Raw SQL for the vector search since GORM has no native support.
	// The <=> operator is pgvector's cosine distance; lower is closer.
	query := `
		SELECT
			chunk_text AS text,
			user_id,
			document_id,
			page,
			source,
			image_path,
			content_type,
			chunk_index,
			1 - (embedding <=> ?) AS score
		FROM embeddings
		WHERE user_id = ?`
	args := []any{vec, userID}

	if len(documentIDs) > 0 {
		query += ` AND document_id IN ?`
		args = append(args, documentIDs)
	}

	query += `
		ORDER BY embedding <=> ?
		LIMIT ?`
	args = append(args, vec, topK)

	var hits []models.Hit
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&hits).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexUnavailable, err)
	}

	return hits, nil
}

// DeleteDocument removes every entry matching both the user and the
// document. Deleting a combination that was never written is a no-op.
func (r *VectorRepositoryImpl) DeleteDocument(ctx context.Context, userID, documentID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		Delete(&models.Embedding{}).Error

	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexUnavailable, err)
	}
	return nil
}
