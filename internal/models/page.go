package models

// Ephemeral pipeline types. None of these are persisted; they only flow
// between the rasterizer, extractor, chunker and vector index during one
// ingestion.

// PageRecord describes one rendered PDF page.
type PageRecord struct {
	Page      int    // 1-based physical page number
	ImagePath string // rendered PNG on disk
	Source    string // original file path/name the page came from
}

// ExtractedContent is the vision model's reading of one page image.
// Both fields are empty when extraction degraded; that is never an error.
type ExtractedContent struct {
	ExtractedText string `json:"extracted_text"`
	Description   string `json:"description"`
}

// Text returns the content to index: extracted text when present,
// otherwise the description.
func (c ExtractedContent) Text() string {
	if c.ExtractedText != "" {
		return c.ExtractedText
	}
	return c.Description
}

// Chunk is one bounded-length segment of a page's content, the unit that
// gets embedded and indexed.
type Chunk struct {
	Text       string
	Page       int
	Source     string
	ImagePath  string
	ChunkIndex int // 0-based position within the page's content
}
