package services

import (
	"context"

	"github.com/huzaifa003/docuchat/internal/models"
	"github.com/huzaifa003/docuchat/internal/openai"
)

// Interfaces are declared here, in the consuming package, not next to
// their implementations. The pipelines only name the methods they call;
// the repository and client packages satisfy them without knowing it.

// VectorIndex is the persisted collection of embedded chunks with
// metadata-scoped search and deletion.
type VectorIndex interface {
	Upsert(ctx context.Context, userID, documentID string, chunks []models.Chunk) (int, error)
	Query(ctx context.Context, userID, text string, topK int, documentIDs []string) ([]models.Hit, error)
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

// DocumentStore is what the pipelines need from document persistence.
type DocumentStore interface {
	GetOwned(ctx context.Context, id, ownerID string) (*models.Document, error)
	FilterOwnedIDs(ctx context.Context, ownerID string, ids []string) ([]string, error)
	FindByNameContains(ctx context.Context, ownerID, fragment string) (*models.Document, error)
}

// ConversationStore is what the conversation pipeline needs from
// conversation persistence.
type ConversationStore interface {
	GetOwned(ctx context.Context, id, ownerID string) (*models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
	CreateSources(ctx context.Context, sources []*models.MessageSource) error
	Touch(ctx context.Context, id string) error
}

// VisionClient reads a page image into text and a short description.
type VisionClient interface {
	VisionCompletion(ctx context.Context, system, instruction, imageDataURL string) (string, error)
}

// CompletionClient produces one chat completion.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, messages []openai.ChatMessage) (string, error)
}

// ContentExtractor turns one page image into extracted content. It never
// returns an error; failures degrade to empty content.
type ContentExtractor interface {
	Extract(ctx context.Context, imagePath string) models.ExtractedContent
}

// PageRasterizer renders a PDF into per-page image records.
type PageRasterizer interface {
	RenderPages(ctx context.Context, pdfPath, outDir string, dpi, maxPages int) ([]models.PageRecord, error)
}
