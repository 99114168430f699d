package services

import (
	"context"
	"fmt"

	"github.com/huzaifa003/docuchat/internal/models"
)

// Retriever runs query-time similarity search with user scoping and
// optional document scoping.
type Retriever struct {
	docs  DocumentStore
	index VectorIndex
}

// NewRetriever creates a new retriever
func NewRetriever(docs DocumentStore, index VectorIndex) *Retriever {
	return &Retriever{docs: docs, index: index}
}

// Retrieve returns up to topK hits for the user's query. Requested
// document ids not owned by the user are silently dropped; if a filter
// was requested and nothing survives the ownership check, the call fails
// with ErrUnauthorizedScope rather than returning an empty result.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, topK int, documentIDs []string) ([]models.Hit, error) {
	if len(documentIDs) > 0 {
		owned, err := r.docs.FilterOwnedIDs(ctx, userID, documentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to verify document scope: %w", err)
		}
		if len(owned) == 0 {
			return nil, models.ErrUnauthorizedScope
		}
		documentIDs = owned
	}

	return r.index.Query(ctx, userID, query, topK, documentIDs)
}
