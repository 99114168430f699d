package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"strings"

	"github.com/huzaifa003/docuchat/internal/models"

	"github.com/disintegration/imaging"
)

// maxImageSide caps the longer side of a page image before it is sent to
// the vision model. Larger pages are scaled down preserving aspect
// ratio; smaller ones are never upscaled.
const maxImageSide = 1600

const visionSystemPrompt = "You convert document page images to text + a short description."

const visionInstruction = "Return STRICT JSON with keys exactly 'extracted_text' and 'description'. " +
	"'extracted_text': all readable text as UTF-8 (tables/labels included). " +
	"'description': 1-3 sentences summarizing the visible content. " +
	"No extra keys or commentary."

// Extractor turns one page image into ExtractedContent via the vision
// model. It deliberately never fails: one unreadable page must not abort
// ingesting the rest of the document, so every failure path logs a reason
// and returns empty content.
type Extractor struct {
	vision VisionClient
}

// NewExtractor creates a new content extractor
func NewExtractor(vision VisionClient) *Extractor {
	return &Extractor{vision: vision}
}

// Extract reads the image, downscales and re-encodes it, and asks the
// vision model for the page's text and description.
func (e *Extractor) Extract(ctx context.Context, imagePath string) models.ExtractedContent {
	img, err := imaging.Open(imagePath)
	if err != nil {
		log.Printf("[vision] failed to open %s: %v", imagePath, err)
		return models.ExtractedContent{}
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageSide || bounds.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		log.Printf("[vision] failed to encode %s: %v", imagePath, err)
		return models.ExtractedContent{}
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	resp, err := e.vision.VisionCompletion(ctx, visionSystemPrompt, visionInstruction, dataURL)
	if err != nil {
		log.Printf("[vision] model call failed for %s: %v", imagePath, err)
		return models.ExtractedContent{}
	}

	return parseVisionResponse(resp)
}

// parseVisionResponse parses the model output, tolerating code fences
// and a leading language tag. If the cleaned response still is not the
// expected JSON, the whole of it becomes the description.
func parseVisionResponse(resp string) models.ExtractedContent {
	content := strings.Trim(strings.TrimSpace(resp), "`")
	if strings.HasPrefix(strings.ToLower(content), "json") {
		content = strings.TrimLeft(content[4:], ": \n")
	}

	var parsed models.ExtractedContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return models.ExtractedContent{Description: strings.TrimSpace(content)}
	}

	parsed.ExtractedText = strings.TrimSpace(parsed.ExtractedText)
	parsed.Description = strings.TrimSpace(parsed.Description)
	return parsed
}
