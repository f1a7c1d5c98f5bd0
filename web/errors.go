package web

import "errors"

var (
	// ErrAgentRequired is returned when no conversational agent is provided.
	ErrAgentRequired = errors.New("agent is required")

	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrRepositoryRequired is returned when a storage repository is missing.
	ErrRepositoryRequired = errors.New("repository is required")

	// ErrConfigRequired is returned when no configuration is provided.
	ErrConfigRequired = errors.New("config is required")
)
