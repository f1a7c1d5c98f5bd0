package storage

import (
	"context"
	"time"

	"github.com/poiesic/invoicit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing knowledge documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// Documents with ID=0 get new IDs from sequence; content-hashed IDs are
	// kept as-is, so re-adding the same content overwrites in place.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentsByDateRange retrieves documents within a time range.
	// Returns documents where start <= Timestamp < end, ordered by timestamp.
	GetDocumentsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, error)

	// GetRecentDocuments retrieves the N most recent documents by domain
	// date, newest first.
	GetRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// GetDocumentsByTerm retrieves IDs of documents indexed under a keyword term.
	// Returns only document IDs, not full documents.
	GetDocumentsByTerm(ctx context.Context, termID core.ID) ([]core.ID, error)

	// FindSimilar finds documents similar to the given vector.
	// Returns documents with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredDocument, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// ConversationRepository provides operations for the assistant conversation log.
type ConversationRepository interface {
	Repository
	// AppendTurns adds one or more turns to the conversation.
	// IDs are always generated from sequence so turn order is stable.
	// Sets InsertedAt, and defaults a zero Timestamp to the insert time.
	// Returns the turns with generated IDs and timestamps populated.
	AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error)

	// UpdateTurns updates existing turns.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any turn doesn't exist.
	UpdateTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error)

	// GetTurn retrieves a single turn by ID.
	// Returns ErrNotFound if the turn doesn't exist.
	GetTurn(ctx context.Context, id core.ID) (*core.Turn, error)

	// GetRecentTurns retrieves the N most recent turns, newest first.
	GetRecentTurns(ctx context.Context, limit int) ([]*core.Turn, error)

	// GetTurnsBefore retrieves turns older than the given turn ID, newest
	// first. This is used for lazy loading older history.
	// Returns ErrNotFound if the reference turn doesn't exist.
	GetTurnsBefore(ctx context.Context, beforeID core.ID, limit int) ([]*core.Turn, error)

	// GetTurnsByDateRange retrieves turns within a time range.
	// Returns turns where start <= Timestamp < end, ordered by timestamp.
	GetTurnsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Turn, error)

	// DeleteTurns removes turns by their IDs.
	// Returns ErrNotFound if any turn doesn't exist.
	DeleteTurns(ctx context.Context, ids ...core.ID) error

	// ClearTurns removes the entire conversation history.
	ClearTurns(ctx context.Context) error

	// CountTurns returns the number of stored turns.
	CountTurns(ctx context.Context) (int, error)
}

// PackRepository tracks which knowledge packs have been installed.
type PackRepository interface {
	Repository
	// RecordInstall saves (or replaces) the install record for a pack name.
	RecordInstall(ctx context.Context, install *core.PackInstall) error

	// GetInstall retrieves the install record for a pack name.
	// Returns ErrNotFound if the pack has never been installed.
	GetInstall(ctx context.Context, name string) (*core.PackInstall, error)

	// ListInstalls returns all install records, ordered by pack name.
	ListInstalls(ctx context.Context) ([]*core.PackInstall, error)

	// RemoveInstall deletes the install record for a pack name.
	// Returns ErrNotFound if no record exists.
	RemoveInstall(ctx context.Context, name string) error
}

// CheckpointRepository persists progress markers for long-running maintenance
// jobs so interrupted runs can resume.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a processor type.
	// Clearing a missing checkpoint is not an error.
	ClearCheckpoint(ctx context.Context, processorType string) error
}
