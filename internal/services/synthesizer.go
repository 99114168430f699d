package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/huzaifa003/docuchat/internal/models"
	"github.com/huzaifa003/docuchat/internal/openai"
)

// historyLimit bounds how many prior messages reach the prompt. Recent
// turns carry almost all the useful context; the cap keeps prompt size
// predictable.
const historyLimit = 10

const groundedSystemPrompt = "Answer the user using only the provided context and the conversation so far. " +
	"If the context does not contain the answer, say you do not know rather than guessing. " +
	"For purely conversational turns (greetings, thanks), reply naturally and do not cite sources."

const conversationalSystemPrompt = "You are a warm, helpful document assistant. " +
	"No document context was retrieved for this turn, so handle greetings, gratitude and small talk naturally, " +
	"and never invent sourced claims. If the user asks about their documents, suggest uploading one or rephrasing the question."

// Synthesizer builds a prompt from retrieved hits plus recent history
// and makes exactly one completion call. It never retries; a model
// failure surfaces as ErrSynthesisFailed for the caller to handle.
type Synthesizer struct {
	llm CompletionClient
}

// NewSynthesizer creates a new answer synthesizer
func NewSynthesizer(llm CompletionClient) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// Synthesize produces a grounded answer for the question. History must
// be ordered oldest to newest; only the most recent historyLimit
// messages are included.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, hits []models.Hit, history []*models.Message) (string, error) {
	system := conversationalSystemPrompt
	if len(hits) > 0 {
		system = groundedSystemPrompt
	}

	messages := make([]openai.ChatMessage, 0, historyLimit+2)
	messages = append(messages, openai.ChatMessage{Role: "system", Content: system})

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, m := range history {
		messages = append(messages, openai.ChatMessage{Role: m.Role, Content: m.Content})
	}

	messages = append(messages, openai.ChatMessage{Role: "user", Content: userTurn(question, hits)})

	answer, err := s.llm.ChatCompletion(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrSynthesisFailed, err)
	}

	return strings.TrimSpace(answer), nil
}

// userTurn combines the question with the rendered context into the
// single user message appended after the history.
func userTurn(question string, hits []models.Hit) string {
	if len(hits) == 0 {
		return question
	}

	blocks := make([]string, 0, len(hits))
	for i, h := range hits {
		blocks = append(blocks, fmt.Sprintf("[%d] page=%d source=%s\n%s", i+1, h.Page, h.Source, h.Text))
	}

	return fmt.Sprintf("Question:\n%s\n\nContext:\n%s\n\nAnswer succinctly.", question, strings.Join(blocks, "\n\n"))
}
