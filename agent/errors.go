package agent

import "errors"

var (
	// ErrConversationRepositoryRequired is returned when a nil conversation
	// repository is passed to New.
	ErrConversationRepositoryRequired = errors.New("conversation repository is required")

	// ErrChainRequired is returned when a nil retrieval QA chain is passed
	// to New.
	ErrChainRequired = errors.New("retrieval QA chain is required")

	// ErrChatModelRequired is returned when a nil chat model is passed to New.
	ErrChatModelRequired = errors.New("chat model is required")
)
