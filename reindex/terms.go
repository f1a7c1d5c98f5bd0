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

	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// TermRebuilder re-tokenizes every document and rewrites the keyword term
// index. Run it after tokenizer changes so keyword search matches what the
// current tokenizer produces.
type TermRebuilder struct {
	repo        storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	iterator    *DocumentIterator
}

// NewTermRebuilder creates a new term rebuilder.
// progress: where to write progress output (typically os.Stderr)
func NewTermRebuilder(repo storage.DocumentRepository, checkpoints storage.CheckpointRepository, config *Config, progress io.Writer) *TermRebuilder {
	if config == nil {
		config = DefaultConfig()
	}

	iterator := NewDocumentIterator(repo, config.BatchSize)

	return &TermRebuilder{
		repo:        repo,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		iterator:    iterator,
	}
}

// Run executes the term rebuild operation.
// Every document's terms are re-derived from its contents; updating the
// document rewrites its term index entries.
func (tr *TermRebuilder) Run(ctx context.Context) error {
	resumeFrom := epoch
	alreadyProcessed := 0

	// Resume from a previous interrupted run if a checkpoint exists
	checkpoint, err := tr.checkpoints.LoadCheckpoint(ctx, TermsProcessor)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint != nil {
		resumeFrom = checkpoint.LastTimestamp
		alreadyProcessed = checkpoint.Processed
		fmt.Fprintf(tr.progress, "Resuming from checkpoint: %d documents already processed\n", alreadyProcessed)
	}

	// Count the remaining documents
	remaining, err := tr.repo.GetDocumentsByDateRange(ctx, resumeFrom, horizon)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}

	totalDocuments := len(remaining)
	if totalDocuments == 0 {
		if checkpoint != nil {
			fmt.Fprintf(tr.progress, "Nothing left to reindex\n")
			return tr.checkpoints.ClearCheckpoint(ctx, TermsProcessor)
		}
		fmt.Fprintf(tr.progress, "No documents found in database (0 documents)\n")
		return nil
	}

	fmt.Fprintf(tr.progress, "Starting term rebuild of %d documents (batch size: %d)\n",
		totalDocuments, tr.config.BatchSize)

	tracker := NewProgressTracker(tr.progress, totalDocuments, tr.config.ReportInterval)
	tracker.Start()

	processed := 0

	err = tr.iterator.ForEachFrom(ctx, resumeFrom, func(documents []*core.Document) error {
		for _, document := range documents {
			document.Terms = core.TermsFromText(document.Contents)
		}

		if _, err := tr.repo.UpdateDocuments(ctx, documents...); err != nil {
			return fmt.Errorf("failed to update documents: %w", err)
		}

		// Checkpoint the batch boundary
		processed += len(documents)
		lastTimestamp := documents[len(documents)-1].Timestamp
		err := tr.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
			ProcessorType: TermsProcessor,
			LastTimestamp: lastTimestamp,
			Processed:     alreadyProcessed + processed,
		})
		if err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}

		tracker.Update(processed)
		return nil
	})

	if err != nil {
		return err
	}

	tracker.Finish()
	if err := tr.checkpoints.ClearCheckpoint(ctx, TermsProcessor); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(tr.progress, "Term rebuild complete. Processed %d documents in %v (%.1f documents/sec)\n",
		totalDocuments, elapsed.Round(time.Second), float64(totalDocuments)/elapsed.Seconds())

	return nil
}
