package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huzaifa003/docuchat/internal/models"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders PDF pages to PNG files via MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer creates a new page rasterizer
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// RenderPages rasterizes a PDF into one PNG per page under
// {outDir}/images/{stem}-page-{n}.png, n being the 1-based page number in
// the document's physical order. maxPages <= 0 means all pages.
//
// A PDF that cannot be opened fails with ErrSourceUnreadable before any
// image is written.
func (*FitzRasterizer) RenderPages(ctx context.Context, pdfPath, outDir string, dpi, maxPages int) ([]models.PageRecord, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSourceUnreadable, pdfPath, err)
	}
	defer doc.Close()

	imgDir := filepath.Join(outDir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	var records []models.PageRecord
	for pageIdx := 0; pageIdx < doc.NumPage(); pageIdx++ {
		if maxPages > 0 && pageIdx >= maxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(pageIdx, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pageIdx+1, err)
		}

		imgPath := filepath.Join(imgDir, fmt.Sprintf("%s-page-%d.png", stem, pageIdx+1))
		if err := imaging.Save(img, imgPath); err != nil {
			return nil, fmt.Errorf("failed to save page %d image: %w", pageIdx+1, err)
		}

		records = append(records, models.PageRecord{
			Page:      pageIdx + 1,
			ImagePath: imgPath,
			Source:    pdfPath,
		})
	}

	return records, nil
}
