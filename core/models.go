package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SpeakerType identifies the source of a conversation turn.
type SpeakerType int

const (
	// SpeakerTypeHuman represents a human user.
	SpeakerTypeHuman SpeakerType = iota + 1
	// SpeakerTypeAssistant represents the assistant.
	SpeakerTypeAssistant
)

// Document is a unit of searchable knowledge, typically one invoice.
// It may be enriched with an embedding vector after insertion.
type Document struct {
	Id         ID
	Contents   string
	Metadata   map[string]string // Structured source fields (e.g. "invoice_id", "customer", "status")
	Terms      []ID              // Keyword term IDs derived from Contents at insert time
	Vector     []float32         // Embedding vector for semantic search (populated by processors)
	Timestamp  time.Time         // The domain date of the document (e.g. the invoice date)
	InsertedAt time.Time         // When the document was inserted into the database
	UpdatedAt  time.Time         // When the document was last updated
}

// Turn represents a single message in the assistant conversation.
type Turn struct {
	Id         ID
	Speaker    SpeakerType
	Contents   string
	Timestamp  time.Time         // When the message was sent
	InsertedAt time.Time         // When the turn was inserted into the database
	UpdatedAt  time.Time         // When the turn was last updated
	Metadata   map[string]string // Optional metadata (e.g. "mode", "model")
}

// PackInstall records one installed knowledge-pack version.
type PackInstall struct {
	Name        string
	Version     string
	Documents   int // Number of documents the pack contributed
	InstalledAt time.Time
}

// Pin returns the pack identity as "name==version".
// This is the form the lockfile uses.
func (p *PackInstall) Pin() string {
	return p.Name + "==" + p.Version
}

// Checkpoint marks the progress of a long-running maintenance job so an
// interrupted run can resume where it left off.
type Checkpoint struct {
	ProcessorType string
	LastTimestamp time.Time // Upper bound of the last fully processed batch
	Processed     int       // Documents processed so far
	UpdatedAt     time.Time
}

// SimilarityMatch represents a document match from vector similarity search.
type SimilarityMatch struct {
	DocumentId ID
	Score      float32
}

// ScoredDocument represents a retrieval result with the full document and relevance score.
type ScoredDocument struct {
	Document *Document
	Score    float32
}
