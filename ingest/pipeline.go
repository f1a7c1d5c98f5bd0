package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// Pipeline orchestrates the ingestion and processing of invoice documents.
// It manages concurrent generation of embeddings for newly added documents.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	embeddingPool      *ants.Pool
	embeddingProc      processor
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documentRepository storage.DocumentRepository,
	checkpointRepository storage.CheckpointRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if checkpointRepository == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default logger
	logger := slog.Default()

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		documentRepository: documentRepository,
		embeddingPool:      embeddingPool,
		logger:             logger,
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processor after options are applied (so it gets the final config)
	embeddingProc, err := newEmbeddingProcessor(documentRepository, checkpointRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.embeddingProc = embeddingProc

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Metadata  map[string]string // Optional metadata to attach to documents
	Timestamp time.Time         // Fallback timestamp for documents without one (uses current time if zero)
}

// IngestInvoices converts invoices to documents and adds them to storage.
// Document IDs are derived from the rendered invoice text, so re-ingesting
// the same invoice overwrites in place rather than duplicating it.
// Embeddings are generated asynchronously; errors during async processing
// are logged but do not fail the ingestion.
func (p *Pipeline) IngestInvoices(ctx context.Context, invoices []*core.Invoice, opts *IngestOptions) ([]*core.Document, error) {
	documents := make([]*core.Document, len(invoices))
	for i, invoice := range invoices {
		if err := core.ValidateInvoice(invoice); err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i, err)
		}
		documents[i] = invoice.Document()
	}

	return p.IngestDocuments(ctx, documents, opts)
}

// IngestDocuments adds documents to storage and processes them asynchronously.
// Documents without terms are tokenized from their contents; documents
// without a timestamp get the options' timestamp or the current time.
// Errors during async processing are logged but do not fail the ingestion.
func (p *Pipeline) IngestDocuments(ctx context.Context, documents []*core.Document, opts *IngestOptions) ([]*core.Document, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	for i, document := range documents {
		if document == nil {
			return nil, fmt.Errorf("document %d: %w", i, core.ErrInvalidDocument)
		}

		if document.Timestamp.IsZero() {
			timestamp := opts.Timestamp
			if timestamp.IsZero() {
				timestamp = time.Now().UTC()
			}
			document.Timestamp = timestamp
		}

		if len(document.Terms) == 0 {
			document.Terms = core.TermsFromText(document.Contents)
		}

		if len(opts.Metadata) > 0 {
			if document.Metadata == nil {
				document.Metadata = make(map[string]string, len(opts.Metadata))
			}
			for key, value := range opts.Metadata {
				document.Metadata[key] = value
			}
		}

		if err := core.ValidateDocument(document); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}

	// Add to storage
	added, err := p.documentRepository.AddDocuments(ctx, documents...)
	if err != nil {
		return nil, err
	}

	if len(added) == 0 {
		return added, nil
	}

	// Extract IDs
	ids := make([]core.ID, len(added))
	for i, document := range added {
		ids[i] = document.Id
	}

	// Submit for async processing
	p.embeddingPool.Submit(func() {
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
			return
		}
		if err := p.embeddingProc.checkpoint(); err != nil {
			p.logger.Error("error applying embedding checkpoint", "err", err)
		}
	})

	return added, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
