package services

import "strings"

// Chunking defaults. 8000 characters fits comfortably inside embedding
// model input limits; 200 characters of overlap keeps sentences that
// straddle a boundary retrievable from either side.
const (
	DefaultMaxChunkChars = 8000
	DefaultChunkOverlap  = 200
)

// SplitForEmbedding splits text into windows of at most maxChars
// characters where consecutive windows share exactly overlap characters.
// The final chunk may be shorter. Blank input yields no chunks; input
// within maxChars is returned whole as a single chunk.
//
// An overlap >= maxChars would stall the window, so it is clamped to
// maxChars-1; the advance per step is always positive.
func SplitForEmbedding(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars - 1
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	i := 0
	for i < len(runes) {
		j := i + maxChars
		if j > len(runes) {
			j = len(runes)
		}
		chunks = append(chunks, string(runes[i:j]))
		if j == len(runes) {
			break
		}
		i = j - overlap
	}
	return chunks
}
