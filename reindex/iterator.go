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
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

const (
	// DefaultBatchSize is the default number of documents to fetch in each batch
	DefaultBatchSize = 100
)

// epoch and horizon bound the date-range query that covers every document.
var (
	epoch   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	horizon = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
)

// DocumentIterator iterates over stored documents in batches, ordered by
// timestamp.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// batchSize: number of documents to fetch in each batch (must be > 0)
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all documents, calling fn for each batch.
// Iteration stops on first error from fn or when all documents are processed.
// Context cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.Document) error) error {
	return it.ForEachFrom(ctx, epoch, fn)
}

// ForEachFrom iterates over documents with timestamps at or after from.
// This is how interrupted runs resume from a checkpoint.
func (it *DocumentIterator) ForEachFrom(ctx context.Context, from time.Time, fn func([]*core.Document) error) error {
	if from.Before(epoch) {
		from = epoch
	}

	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Fetch all matching documents using the date range query
	documents, err := it.repo.GetDocumentsByDateRange(ctx, from, horizon)
	if err != nil {
		return err
	}

	if len(documents) == 0 {
		// No documents to process
		return nil
	}

	// Process documents in batches of batchSize
	for i := 0; i < len(documents); i += it.batchSize {
		end := i + it.batchSize
		if end > len(documents) {
			end = len(documents)
		}

		batch := documents[i:end]

		// Call user function with batch
		if err := fn(batch); err != nil {
			return err
		}

		// Check context after each batch
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
