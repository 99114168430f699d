package services

import (
	"context"
	"strings"
	"testing"

	"github.com/huzaifa003/docuchat/internal/models"
	"github.com/huzaifa003/docuchat/internal/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askFixture struct {
	convos   *fakeConvoStore
	docs     *fakeDocStore
	index    *memIndex
	llm      *fakeLLM
	pipeline *ConversationPipeline
}

func newAskFixture(t *testing.T) *askFixture {
	t.Helper()
	convos := newFakeConvoStore()
	docs := &fakeDocStore{}
	index := newMemIndex()
	llm := &fakeLLM{response: "Here is your answer."}
	pipeline := NewConversationPipeline(convos, docs, NewRetriever(docs, index), NewSynthesizer(llm))
	return &askFixture{convos: convos, docs: docs, index: index, llm: llm, pipeline: pipeline}
}

func TestAsk_GroundedTurnPersistsMessagesAndSources(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	f.docs.add("doc-a", "alice", "report.pdf")
	seedIndex(t, f.index, "alice", "doc-a", "revenue grew 12% year over year")

	answer, hits, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "how did revenue do?", 0, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, models.RoleAssistant, answer.Role)
	assert.Equal(t, "Here is your answer.", answer.Content)

	msgs, err := f.convos.ListMessages(context.Background(), "convo-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "how did revenue do?", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	require.Len(t, f.convos.sources, 1)
	src := f.convos.sources[0]
	assert.Equal(t, answer.ID, src.MessageID)
	require.NotNil(t, src.DocumentID)
	assert.Equal(t, "doc-a", *src.DocumentID)
	assert.Equal(t, "revenue grew 12% year over year", src.Snippet)

	assert.False(t, f.convos.convos["convo-1"].UpdatedAt.IsZero(), "conversation clock advances")
}

func TestAsk_NoHitsMeansConversationalReplyWithoutSources(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	f.llm.response = "Hi! Upload a document to get started."

	answer, hits, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "hello!", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, "Hi! Upload a document to get started.", answer.Content)
	assert.Empty(t, f.convos.sources)

	require.Len(t, f.llm.prompts, 1)
	assert.Equal(t, conversationalSystemPrompt, f.llm.prompts[0][0].Content)
}

func TestAsk_SecondTurnCarriesHistory(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")

	_, _, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "first question", 0, nil)
	require.NoError(t, err)

	_, _, err = f.pipeline.Ask(context.Background(), "alice", "convo-1", "second question", 0, nil)
	require.NoError(t, err)

	require.Len(t, f.llm.prompts, 2)

	first := f.llm.prompts[0]
	require.Len(t, first, 2, "first turn has no history")

	second := f.llm.prompts[1]
	require.Len(t, second, 4, "second turn carries the first turn's two messages")
	assert.Equal(t, openai.ChatMessage{Role: models.RoleUser, Content: "first question"}, second[1])
	assert.Equal(t, openai.ChatMessage{Role: models.RoleAssistant, Content: "Here is your answer."}, second[2])
	assert.Equal(t, "second question", second[3].Content)
}

func TestAsk_UnknownConversation(t *testing.T) {
	f := newAskFixture(t)

	_, _, err := f.pipeline.Ask(context.Background(), "alice", "missing", "question", 0, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAsk_ForeignConversationLooksMissing(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "bob")

	_, _, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "question", 0, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAsk_SynthesisFailureLeavesUserMessageOnly(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	f.llm.err = errModelDown

	_, _, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "question", 0, nil)
	require.ErrorIs(t, err, models.ErrSynthesisFailed)

	msgs, listErr := f.convos.ListMessages(context.Background(), "convo-1")
	require.NoError(t, listErr)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Empty(t, f.convos.sources)
}

func TestAsk_UnauthorizedDocumentFilter(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	f.docs.add("doc-b", "bob", "plans.pdf")

	_, _, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "question", 0, []string{"doc-b"})
	assert.ErrorIs(t, err, models.ErrUnauthorizedScope)
}

func TestAsk_SourceCapAndSnippetTruncation(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	f.docs.add("doc-a", "alice", "long.pdf")

	long := strings.Repeat("x", 700)
	texts := []string{long + " one", long + " two", long + " three", long + " four", long + " five", long + " six", long + " seven"}
	seedIndex(t, f.index, "alice", "doc-a", texts...)

	_, hits, err := f.pipeline.Ask(context.Background(), "alice", "convo-1", "xxxx", 0, nil)
	require.NoError(t, err)
	require.Len(t, hits, 7)

	require.Len(t, f.convos.sources, maxTrackedSources)
	for _, src := range f.convos.sources {
		assert.Len(t, []rune(src.Snippet), snippetLimit)
	}
}

func TestAsk_FilenameFallbackAttribution(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")
	doc := f.docs.add("doc-a", "alice", "quarterly-report.pdf")

	// Index rows written without a document id only carry the source
	// filename; attribution falls back to a name match.
	_, err := f.index.Upsert(context.Background(), "alice", "", []models.Chunk{
		{Text: "margins improved", Page: 2, Source: "/media/docs/quarterly-report.pdf"},
	})
	require.NoError(t, err)

	_, _, askErr := f.pipeline.Ask(context.Background(), "alice", "convo-1", "margins", 0, nil)
	require.NoError(t, askErr)

	require.Len(t, f.convos.sources, 1)
	require.NotNil(t, f.convos.sources[0].DocumentID)
	assert.Equal(t, doc.ID, *f.convos.sources[0].DocumentID)
}

func TestAsk_UnattributableHitKeepsNilDocumentID(t *testing.T) {
	f := newAskFixture(t)
	f.convos.addConversation("convo-1", "alice")

	_, err := f.index.Upsert(context.Background(), "alice", "", []models.Chunk{
		{Text: "orphan content", Page: 1, Source: "unknown.pdf"},
	})
	require.NoError(t, err)

	_, _, askErr := f.pipeline.Ask(context.Background(), "alice", "convo-1", "orphan", 0, nil)
	require.NoError(t, askErr)

	require.Len(t, f.convos.sources, 1)
	assert.Nil(t, f.convos.sources[0].DocumentID)
}
