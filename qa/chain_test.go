package qa

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/ai/mock"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/retrieval"
	"github.com/poiesic/invoicit/storage"
	"github.com/poiesic/invoicit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestChain builds a RetrievalQA over an in-memory store with a document
// that the mock embedder will always match.
func newTestChain(t *testing.T) (*RetrievalQA, *mock.MockChatModel, storage.DocumentRepository, func()) {
	t.Helper()

	docRepo, convRepo, packRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	mockEmbedder := mock.NewMockEmbedder()
	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.9, 0.1, 0.0}, nil
	}
	mockChat := mock.NewMockChatModel()
	provider := mock.NewMockProviderWithServices(mockEmbedder, mockChat)

	retriever, err := retrieval.NewRetriever(docRepo, provider)
	require.NoError(t, err)

	chain, err := NewRetrievalQA(retriever, mockChat)
	require.NoError(t, err)

	cleanup := func() {
		packRepo.Close()
		convRepo.Close()
		docRepo.Close()
		backend.Close()
	}
	return chain, mockChat, docRepo, cleanup
}

func TestNewRetrievalQA(t *testing.T) {
	chain, _, _, cleanup := newTestChain(t)
	defer cleanup()
	assert.NotNil(t, chain)

	t.Run("nil retriever", func(t *testing.T) {
		_, err := NewRetrievalQA(nil, mock.NewMockChatModel())
		assert.Equal(t, ErrRetrieverRequired, err)
	})

	t.Run("nil chat model", func(t *testing.T) {
		docRepo, convRepo, packRepo, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

		retriever, err := retrieval.NewRetriever(docRepo, mock.NewMockProvider())
		require.NoError(t, err)

		_, err = NewRetrievalQA(retriever, nil)
		assert.Equal(t, ErrChatModelRequired, err)
	})
}

func TestAnswer_NoResults(t *testing.T) {
	chain, mockChat, _, cleanup := newTestChain(t)
	defer cleanup()

	ctx := context.Background()

	// Empty store: retrieval finds nothing, the model is never asked
	answer, err := chain.Answer(ctx, "which invoices are pending?")
	require.NoError(t, err)

	assert.Equal(t, NoResultsReply, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, mockChat.CallCount())
}

func TestAnswer_WithResults(t *testing.T) {
	chain, mockChat, docRepo, cleanup := newTestChain(t)
	defer cleanup()

	ctx := context.Background()

	doc := &core.Document{
		Contents:  "Invoice ID: 101 | Customer: Alice Johnson | Payment Method: Credit Card | Status: Paid",
		Timestamp: time.Now().UTC(),
		Vector:    []float32{0.9, 0.1, 0.0},
	}
	_, err := docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	mockChat.Reply = "Invoice 101 was paid by credit card."

	answer, err := chain.Answer(ctx, "how was invoice 101 paid?")
	require.NoError(t, err)

	assert.Equal(t, "Invoice 101 was paid by credit card.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, doc.Id, answer.Sources[0].Document.Id)

	// The model saw the retrieved record stuffed into the system prompt
	require.NotEmpty(t, mockChat.LastMessages)
	system := mockChat.LastMessages[0]
	assert.Equal(t, ai.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "Invoice ID: 101")

	// The question is the final user message
	last := mockChat.LastMessages[len(mockChat.LastMessages)-1]
	assert.Equal(t, ai.RoleUser, last.Role)
	assert.Equal(t, "how was invoice 101 paid?", last.Content)

	// Low temperature keeps the answer grounded
	assert.Equal(t, DefaultTemperature, mockChat.LastOptions.Temperature)
	assert.False(t, mockChat.LastOptions.JSONMode)
}

func TestAnswerWithHistory(t *testing.T) {
	chain, mockChat, docRepo, cleanup := newTestChain(t)
	defer cleanup()

	ctx := context.Background()

	doc := &core.Document{
		Contents:  "Invoice ID: 102 | Customer: Bob Smith | Status: Pending",
		Timestamp: time.Now().UTC(),
		Vector:    []float32{0.9, 0.1, 0.0},
	}
	_, err := docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	history := []*core.Turn{
		{Speaker: core.SpeakerTypeHuman, Contents: "Show me Bob's invoices."},
		{Speaker: core.SpeakerTypeAssistant, Contents: "Bob Smith has invoice 102, currently pending."},
	}

	_, err = chain.AnswerWithHistory(ctx, "is it paid yet?", history, nil)
	require.NoError(t, err)

	// system + 2 history turns + question
	require.Len(t, mockChat.LastMessages, 4)
	assert.Equal(t, ai.RoleUser, mockChat.LastMessages[1].Role)
	assert.Equal(t, "Show me Bob's invoices.", mockChat.LastMessages[1].Content)
	assert.Equal(t, ai.RoleAssistant, mockChat.LastMessages[2].Role)
	assert.Equal(t, ai.RoleUser, mockChat.LastMessages[3].Role)
}

func TestAnswer_CustomOptions(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	mockEmbedder := mock.NewMockEmbedder()
	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.9, 0.1, 0.0}, nil
	}
	mockChat := mock.NewMockChatModel()
	provider := mock.NewMockProviderWithServices(mockEmbedder, mockChat)

	retriever, err := retrieval.NewRetriever(docRepo, provider)
	require.NoError(t, err)

	chain, err := NewRetrievalQA(retriever, mockChat,
		WithMaxHits(2),
		WithTemperature(0.5),
	)
	require.NoError(t, err)

	// Add more documents than the configured limit
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		_, err := docRepo.AddDocuments(ctx, &core.Document{
			Contents:  "Invoice ID: 101 | Status: Paid",
			Timestamp: now,
			Vector:    []float32{0.9, 0.1, 0.0},
		})
		require.NoError(t, err)
	}

	answer, err := chain.Answer(ctx, "paid invoices")
	require.NoError(t, err)

	assert.Len(t, answer.Sources, 2)
	assert.Equal(t, 0.5, mockChat.LastOptions.Temperature)
}

func TestAnswer_CompletionError(t *testing.T) {
	chain, mockChat, docRepo, cleanup := newTestChain(t)
	defer cleanup()

	ctx := context.Background()

	_, err := docRepo.AddDocuments(ctx, &core.Document{
		Contents:  "Invoice ID: 101 | Status: Paid",
		Timestamp: time.Now().UTC(),
		Vector:    []float32{0.9, 0.1, 0.0},
	})
	require.NoError(t, err)

	mockChat.CompleteFunc = func(ctx context.Context, messages []ai.Message, opts ...ai.CompleteOption) (string, error) {
		return "", assert.AnError
	}

	_, err = chain.Answer(ctx, "paid invoices")
	assert.ErrorIs(t, err, assert.AnError)
}
