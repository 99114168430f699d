package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/huzaifa003/docuchat/internal/models"
	"github.com/huzaifa003/docuchat/internal/openai"

	"github.com/segmentio/ksuid"
)

// stubEmbed produces a small deterministic vector from character
// frequencies. Similarity ranking is stable, which is all these tests
// need from an embedding.
func stubEmbed(text string) []float32 {
	vec := make([]float32, 16)
	for _, r := range text {
		vec[int(r)%16]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func cosine(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

type memEntry struct {
	userID     string
	documentID string
	chunk      models.Chunk
	vec        []float32
}

// memIndex is an in-memory VectorIndex with the same scoping semantics
// as the pgvector-backed repository: brute-force cosine search filtered
// by user and optionally by document.
type memIndex struct {
	mu      sync.RWMutex
	entries []memEntry
}

func newMemIndex() *memIndex { return &memIndex{} }

func (m *memIndex) Upsert(_ context.Context, userID, documentID string, chunks []models.Chunk) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, ch := range chunks {
		text := strings.TrimSpace(ch.Text)
		if text == "" {
			continue
		}
		ch.Text = text
		m.entries = append(m.entries, memEntry{
			userID:     userID,
			documentID: documentID,
			chunk:      ch,
			vec:        stubEmbed(text),
		})
		count++
	}
	return count, nil
}

func (m *memIndex) Query(_ context.Context, userID, text string, topK int, documentIDs []string) ([]models.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topK <= 0 {
		topK = 8
	}

	allowed := map[string]bool{}
	for _, id := range documentIDs {
		allowed[id] = true
	}

	qvec := stubEmbed(text)
	var hits []models.Hit
	for _, e := range m.entries {
		if e.userID != userID {
			continue
		}
		if len(allowed) > 0 && !allowed[e.documentID] {
			continue
		}
		hits = append(hits, models.Hit{
			Text:        e.chunk.Text,
			UserID:      e.userID,
			DocumentID:  e.documentID,
			Page:        e.chunk.Page,
			Source:      e.chunk.Source,
			ImagePath:   e.chunk.ImagePath,
			ContentType: models.ContentTypePageImage,
			ChunkIndex:  e.chunk.ChunkIndex,
			Score:       cosine(e.vec, qvec),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *memIndex) DeleteDocument(_ context.Context, userID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.userID == userID && e.documentID == documentID {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return nil
}

// fakeDocStore is an in-memory DocumentStore.
type fakeDocStore struct {
	docs []*models.Document
}

func (s *fakeDocStore) add(id, ownerID, originalName string) *models.Document {
	doc := &models.Document{ID: id, OwnerID: ownerID, OriginalName: originalName}
	s.docs = append(s.docs, doc)
	return doc
}

func (s *fakeDocStore) GetOwned(_ context.Context, id, ownerID string) (*models.Document, error) {
	for _, d := range s.docs {
		if d.ID == id && d.OwnerID == ownerID {
			return d, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeDocStore) FilterOwnedIDs(_ context.Context, ownerID string, ids []string) ([]string, error) {
	var owned []string
	for _, id := range ids {
		for _, d := range s.docs {
			if d.ID == id && d.OwnerID == ownerID {
				owned = append(owned, id)
				break
			}
		}
	}
	return owned, nil
}

func (s *fakeDocStore) FindByNameContains(_ context.Context, ownerID, fragment string) (*models.Document, error) {
	for _, d := range s.docs {
		if d.OwnerID == ownerID && strings.Contains(strings.ToLower(d.OriginalName), strings.ToLower(fragment)) {
			return d, nil
		}
	}
	return nil, models.ErrNotFound
}

// fakeConvoStore is an in-memory ConversationStore.
type fakeConvoStore struct {
	convos   map[string]*models.Conversation
	messages []*models.Message
	sources  []*models.MessageSource
}

func newFakeConvoStore() *fakeConvoStore {
	return &fakeConvoStore{convos: map[string]*models.Conversation{}}
}

func (s *fakeConvoStore) addConversation(id, ownerID string) *models.Conversation {
	convo := &models.Conversation{ID: id, OwnerID: ownerID}
	s.convos[id] = convo
	return convo
}

func (s *fakeConvoStore) GetOwned(_ context.Context, id, ownerID string) (*models.Conversation, error) {
	convo, ok := s.convos[id]
	if !ok || convo.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return convo, nil
}

func (s *fakeConvoStore) CreateMessage(_ context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ksuid.New().String()
	}
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeConvoStore) ListMessages(_ context.Context, conversationID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeConvoStore) CreateSources(_ context.Context, sources []*models.MessageSource) error {
	s.sources = append(s.sources, sources...)
	return nil
}

func (s *fakeConvoStore) Touch(_ context.Context, id string) error {
	if convo, ok := s.convos[id]; ok {
		convo.UpdatedAt = time.Now()
	}
	return nil
}

// fakeVision returns a canned response or error per call.
type fakeVision struct {
	response string
	err      error
	calls    int
}

func (v *fakeVision) VisionCompletion(context.Context, string, string, string) (string, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	return v.response, nil
}

// fakeLLM records the prompt it was given.
type fakeLLM struct {
	response string
	err      error
	prompts  [][]openai.ChatMessage
}

func (l *fakeLLM) ChatCompletion(_ context.Context, messages []openai.ChatMessage) (string, error) {
	l.prompts = append(l.prompts, messages)
	if l.err != nil {
		return "", l.err
	}
	return l.response, nil
}

// fakeRasterizer returns preset page records without touching a PDF.
type fakeRasterizer struct {
	pages []models.PageRecord
	err   error
}

func (r *fakeRasterizer) RenderPages(context.Context, string, string, int, int) ([]models.PageRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.pages, nil
}

// fakeExtractor serves content keyed by image path.
type fakeExtractor struct {
	byPath map[string]models.ExtractedContent
}

func (e *fakeExtractor) Extract(_ context.Context, imagePath string) models.ExtractedContent {
	return e.byPath[imagePath]
}

var errModelDown = errors.New("model unavailable")

func pageRecord(n int, source string) models.PageRecord {
	return models.PageRecord{
		Page:      n,
		ImagePath: fmt.Sprintf("/media/images/%s-page-%d.png", strings.TrimSuffix(source, ".pdf"), n),
		Source:    source,
	}
}
