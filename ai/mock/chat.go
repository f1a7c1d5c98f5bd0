package mock

import (
	"context"

	"github.com/poiesic/invoicit/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields and records the
// last request so tests can assert on prompts and options.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns Reply.
	CompleteFunc func(ctx context.Context, messages []ai.Message, opts ...ai.CompleteOption) (string, error)

	// Reply is the default response when CompleteFunc is nil.
	Reply string

	// LastMessages holds the messages from the most recent Complete call.
	LastMessages []ai.Message

	// LastOptions holds the resolved options from the most recent Complete call.
	LastOptions ai.CompleteOptions

	callCount int
}

// NewMockChatModel creates a mock chat model with a canned default reply.
// Note: Returns concrete type to allow test assertions via GetMockChatModel().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{Reply: "This is a mock reply."}
}

// Complete records the request and returns the configured response.
func (m *MockChatModel) Complete(ctx context.Context, messages []ai.Message, opts ...ai.CompleteOption) (string, error) {
	m.callCount++
	m.LastMessages = messages
	m.LastOptions = ai.ApplyCompleteOptions(opts...)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts...)
	}

	return m.Reply, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count, recorded request, and custom function.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
	m.LastMessages = nil
	m.LastOptions = ai.CompleteOptions{}
}
