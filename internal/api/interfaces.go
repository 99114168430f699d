package api

import (
	"context"

	"github.com/huzaifa003/docuchat/internal/models"
)

// Handler-facing interfaces live here, in the consuming package. The
// services package provides the implementations; the handlers only name
// the operations they actually call.

// IngestionService indexes one uploaded document.
type IngestionService interface {
	Ingest(ctx context.Context, userID, documentID, pdfPath string) (int, error)
}

// ConversationService runs one question/answer turn.
type ConversationService interface {
	Ask(ctx context.Context, userID, conversationID, question string, topK int, documentIDs []string) (*models.Message, []models.Hit, error)
}

// VectorIndex is the slice of the index the handlers touch directly:
// purging a deleted document's entries.
type VectorIndex interface {
	DeleteDocument(ctx context.Context, userID, documentID string) error
}
