package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// embeddingProcessor generates embeddings for stored documents.
type embeddingProcessor struct {
	documentRepository   storage.DocumentRepository
	checkpointRepository storage.CheckpointRepository
	embedder             ai.Embedder
	logger               *slog.Logger

	mu            sync.Mutex
	processed     int
	lastTimestamp time.Time
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(documentRepository storage.DocumentRepository, checkpointRepository storage.CheckpointRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if documentRepository == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if checkpointRepository == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		documentRepository:   documentRepository,
		checkpointRepository: checkpointRepository,
		embedder:             embedder,
		logger:               logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified documents.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing documents for embeddings", "documents", len(ids))

	if len(ids) == 0 {
		return nil
	}

	// Sort first so checkpointing works correctly
	slices.Sort(ids)

	documents, err := ep.documentRepository.GetDocuments(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving documents", "err", err)
		return err
	}
	if len(documents) == 0 {
		return nil
	}

	texts := make([]string, len(documents))
	for i, document := range documents {
		texts[i] = document.Contents
	}

	ep.logger.Debug("generating embeddings for documents", "documents", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(documents) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(documents), len(embeddings))
	}

	for i := range embeddings {
		documents[i].Vector = core.NormalizeVector(embeddings[i])
	}

	updated, err := ep.documentRepository.UpdateDocuments(ctx, documents...)
	if err != nil {
		return err
	}

	ep.mu.Lock()
	ep.processed += len(updated)
	for _, document := range updated {
		if document.Timestamp.After(ep.lastTimestamp) {
			ep.lastTimestamp = document.Timestamp
		}
	}
	ep.mu.Unlock()

	return nil
}

// checkpoint saves the processor's progress.
func (ep *embeddingProcessor) checkpoint() error {
	ep.mu.Lock()
	checkpoint := &core.Checkpoint{
		ProcessorType: "embeddings",
		LastTimestamp: ep.lastTimestamp,
		Processed:     ep.processed,
	}
	ep.mu.Unlock()

	return ep.checkpointRepository.SaveCheckpoint(context.Background(), checkpoint)
}
