// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockChat := mock.NewMockChatModel()
//	mockChat.CompleteFunc = func(ctx context.Context, messages []ai.Message, opts ...ai.CompleteOption) (string, error) {
//	    return `{"action": "answer", "answer": "hello"}`, nil
//	}
//
//	// Check call counts and recorded requests
//	count := mockChat.CallCount()
//	lastPrompt := mockChat.LastMessages
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockChatModel: Returns a canned reply and records the request
//   - MockProvider: Aggregates mock embedder and chat model
package mock
