// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// Checkpoint processor types used by the maintenance jobs.
const (
	// EmbeddingsProcessor keys checkpoints of embedding rebuilds.
	EmbeddingsProcessor = "embeddings"

	// TermsProcessor keys checkpoints of term index rebuilds.
	TermsProcessor = "terms"
)

// Config holds configuration for bulk maintenance operations.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all documents in a database.
// Progress is checkpointed after each batch so an interrupted run resumes
// where it left off.
type Reembedder struct {
	repo        storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *DocumentIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.DocumentRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewDocumentIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:        repo,
		checkpoints: checkpoints,
		embedder:    embedder,
		config:      config,
		progress:    progress,
		processor:   processor,
		iterator:    iterator,
	}
}

// Run executes the reembedding operation.
// All documents in the database will be reembedded with the configured
// embedder. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	resumeFrom := epoch
	alreadyProcessed := 0

	// Resume from a previous interrupted run if a checkpoint exists
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, EmbeddingsProcessor)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint != nil {
		resumeFrom = checkpoint.LastTimestamp
		alreadyProcessed = checkpoint.Processed
		fmt.Fprintf(r.progress, "Resuming from checkpoint: %d documents already processed\n", alreadyProcessed)
	}

	// Count the remaining documents
	remaining, err := r.repo.GetDocumentsByDateRange(ctx, resumeFrom, horizon)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}

	totalDocuments := len(remaining)
	if totalDocuments == 0 {
		if checkpoint != nil {
			fmt.Fprintf(r.progress, "Nothing left to reindex\n")
			return r.checkpoints.ClearCheckpoint(ctx, EmbeddingsProcessor)
		}
		fmt.Fprintf(r.progress, "No documents found in database (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d documents (batch size: %d)\n",
		totalDocuments, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, totalDocuments, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	// Process all documents in batches
	err = r.iterator.ForEachFrom(ctx, resumeFrom, func(documents []*core.Document) error {
		// Process this batch
		if err := r.processor.Process(ctx, documents); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Checkpoint the batch boundary
		processed += len(documents)
		if err := r.saveCheckpoint(ctx, documents, alreadyProcessed+processed); err != nil {
			return err
		}

		tracker.Update(processed)
		return nil
	})

	if err != nil {
		return err
	}

	// Finish progress tracking and drop the checkpoint
	tracker.Finish()
	if err := r.checkpoints.ClearCheckpoint(ctx, EmbeddingsProcessor); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d documents in %v (%.1f documents/sec)\n",
		totalDocuments, elapsed.Round(time.Second), float64(totalDocuments)/elapsed.Seconds())

	return nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, batch []*core.Document, processed int) error {
	lastTimestamp := batch[len(batch)-1].Timestamp
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: EmbeddingsProcessor,
		LastTimestamp: lastTimestamp,
		Processed:     processed,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
