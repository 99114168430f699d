package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/huzaifa003/docuchat/internal/middleware"
	"github.com/huzaifa003/docuchat/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// maxTrackedSources caps how many retrieval hits are persisted as
	// provenance for one assistant answer.
	maxTrackedSources = 5

	// snippetLimit truncates stored snippets.
	snippetLimit = 500

	defaultTopK = 8
)

// ConversationPipeline orchestrates one user turn: persist the question,
// retrieve, synthesize, persist the answer and its sources, and advance
// the conversation clock.
type ConversationPipeline struct {
	convos      ConversationStore
	docs        DocumentStore
	retriever   *Retriever
	synthesizer *Synthesizer
}

// NewConversationPipeline creates a new conversation pipeline
func NewConversationPipeline(convos ConversationStore, docs DocumentStore, retriever *Retriever, synthesizer *Synthesizer) *ConversationPipeline {
	return &ConversationPipeline{
		convos:      convos,
		docs:        docs,
		retriever:   retriever,
		synthesizer: synthesizer,
	}
}

// Ask runs one turn in the user's conversation and returns the persisted
// assistant message together with the hits that grounded it.
//
// The user message is persisted before retrieval, so a failed turn
// leaves it in place; the caller decides whether that is acceptable.
func (p *ConversationPipeline) Ask(ctx context.Context, userID, conversationID, question string, topK int, documentIDs []string) (*models.Message, []models.Hit, error) {
	ctx, span := middleware.StartSpan(ctx, "Conversation.Ask",
		attribute.String("conversation_id", conversationID),
		attribute.Int("top_k", topK),
	)
	defer span.End()

	if topK <= 0 {
		topK = defaultTopK
	}

	convo, err := p.convos.GetOwned(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	// History is read before this turn's messages are written, so it
	// holds exactly the prior turns.
	history, err := p.convos.ListMessages(ctx, convo.ID)
	if err != nil {
		return nil, nil, err
	}

	userMsg := &models.Message{
		ConversationID: convo.ID,
		Role:           models.RoleUser,
		Content:        question,
	}
	if err := p.convos.CreateMessage(ctx, userMsg); err != nil {
		return nil, nil, err
	}

	hits, err := p.retriever.Retrieve(ctx, userID, question, topK, documentIDs)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, nil, err
	}

	answer, err := p.synthesizer.Synthesize(ctx, question, hits, history)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, nil, err
	}

	assistantMsg := &models.Message{
		ConversationID: convo.ID,
		Role:           models.RoleAssistant,
		Content:        answer,
	}
	if err := p.convos.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, nil, err
	}

	if err := p.convos.Touch(ctx, convo.ID); err != nil {
		return nil, nil, err
	}

	if err := p.trackSources(ctx, userID, assistantMsg.ID, hits); err != nil {
		return nil, nil, fmt.Errorf("failed to track sources: %w", err)
	}

	middleware.AddSpanEvent(ctx, "turn_completed",
		attribute.Int("hits", len(hits)),
		attribute.Int("answer_length", len(answer)),
	)

	return assistantMsg, hits, nil
}

// trackSources persists provenance rows for the top hits. Attribution to
// an owned document is best effort: the index metadata's document id is
// preferred, falling back to a filename match against the owner's
// documents; a hit that matches nothing keeps a null document id.
func (p *ConversationPipeline) trackSources(ctx context.Context, userID, messageID string, hits []models.Hit) error {
	n := len(hits)
	if n > maxTrackedSources {
		n = maxTrackedSources
	}
	if n == 0 {
		return nil
	}

	sources := make([]*models.MessageSource, 0, n)
	for _, h := range hits[:n] {
		sources = append(sources, &models.MessageSource{
			MessageID:  messageID,
			DocumentID: p.attributeDocument(ctx, userID, h),
			Page:       h.Page,
			Snippet:    truncateRunes(h.Text, snippetLimit),
			ImagePath:  h.ImagePath,
			Source:     h.Source,
		})
	}

	return p.convos.CreateSources(ctx, sources)
}

func (p *ConversationPipeline) attributeDocument(ctx context.Context, userID string, h models.Hit) *string {
	if h.DocumentID != "" {
		if doc, err := p.docs.GetOwned(ctx, h.DocumentID, userID); err == nil {
			return &doc.ID
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil
		}
	}

	base := filepath.Base(h.Source)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil
	}
	if doc, err := p.docs.FindByNameContains(ctx, userID, base); err == nil {
		return &doc.ID
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
