package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message in a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompleteOptions holds per-request settings for ChatModel.Complete.
type CompleteOptions struct {
	// Temperature controls sampling randomness. 0 is deterministic.
	Temperature float64

	// JSONMode asks the model to emit a single JSON object.
	// Not every backend honors it, so callers still validate the output.
	JSONMode bool
}

// CompleteOption is a functional option for a single completion request.
type CompleteOption func(*CompleteOptions)

// WithTemperature sets the sampling temperature for a completion request.
func WithTemperature(temperature float64) CompleteOption {
	return func(o *CompleteOptions) {
		o.Temperature = temperature
	}
}

// WithJSONMode requests JSON-only output for a completion request.
func WithJSONMode() CompleteOption {
	return func(o *CompleteOptions) {
		o.JSONMode = true
	}
}

// ApplyCompleteOptions folds options into a CompleteOptions value.
// Exposed so implementations outside this package can share the defaults.
func ApplyCompleteOptions(opts ...CompleteOption) CompleteOptions {
	var options CompleteOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// ChatModel generates chat completions from a message sequence.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete sends the messages to the model and returns the reply text.
	// Returns an error if the completion request fails.
	Complete(ctx context.Context, messages []Message, opts ...CompleteOption) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
