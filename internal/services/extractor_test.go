package services

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/huzaifa003/docuchat/internal/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	img := imaging.New(12, 12, color.NRGBA{R: 255, A: 255})
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestExtract_ParsesModelJSON(t *testing.T) {
	vision := &fakeVision{response: `{"extracted_text": "Invoice #42", "description": "A scanned invoice."}`}
	extractor := NewExtractor(vision)

	content := extractor.Extract(context.Background(), writeTestImage(t, "page-1.png"))

	assert.Equal(t, "Invoice #42", content.ExtractedText)
	assert.Equal(t, "A scanned invoice.", content.Description)
	assert.Equal(t, 1, vision.calls)
}

func TestExtract_StripsCodeFences(t *testing.T) {
	vision := &fakeVision{response: "```json\n{\"extracted_text\": \"hello\", \"description\": \"a page\"}\n```"}
	extractor := NewExtractor(vision)

	content := extractor.Extract(context.Background(), writeTestImage(t, "page-1.png"))

	assert.Equal(t, "hello", content.ExtractedText)
	assert.Equal(t, "a page", content.Description)
}

func TestExtract_NonJSONBecomesDescription(t *testing.T) {
	vision := &fakeVision{response: "The page shows a bar chart of quarterly revenue."}
	extractor := NewExtractor(vision)

	content := extractor.Extract(context.Background(), writeTestImage(t, "page-1.png"))

	assert.Empty(t, content.ExtractedText)
	assert.Equal(t, "The page shows a bar chart of quarterly revenue.", content.Description)
}

func TestExtract_DegradesWhenImageUnreadable(t *testing.T) {
	vision := &fakeVision{response: `{"extracted_text": "unused", "description": "unused"}`}
	extractor := NewExtractor(vision)

	content := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.png"))

	assert.Equal(t, models.ExtractedContent{}, content)
	assert.Zero(t, vision.calls, "model should not be called for an unreadable image")
}

func TestExtract_DegradesWhenModelFails(t *testing.T) {
	vision := &fakeVision{err: errModelDown}
	extractor := NewExtractor(vision)

	content := extractor.Extract(context.Background(), writeTestImage(t, "page-1.png"))

	assert.Equal(t, models.ExtractedContent{}, content)
	assert.Equal(t, 1, vision.calls)
}

func TestParseVisionResponse_LanguageTagWithoutFence(t *testing.T) {
	content := parseVisionResponse("json: {\"extracted_text\": \"x\", \"description\": \"y\"}")

	assert.Equal(t, "x", content.ExtractedText)
	assert.Equal(t, "y", content.Description)
}

func TestExtractedContent_TextPrefersExtractedText(t *testing.T) {
	withText := models.ExtractedContent{ExtractedText: "body", Description: "summary"}
	assert.Equal(t, "body", withText.Text())

	descOnly := models.ExtractedContent{Description: "summary"}
	assert.Equal(t, "summary", descOnly.Text())
}
