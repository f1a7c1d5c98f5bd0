package badger

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

const defaultSequenceBandwidth = 100

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter bridges badger's printf-style logger onto slog.
type slogAdapter struct {
	base *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, args ...any) {
	a.base.Error(fmt.Sprintf(msg, args...))
}

func (a *slogAdapter) Warningf(msg string, args ...any) {
	a.base.Warn(fmt.Sprintf(msg, args...))
}

func (a *slogAdapter) Infof(msg string, args ...any) {
	a.base.Info(fmt.Sprintf(msg, args...))
}

func (a *slogAdapter) Debugf(msg string, args ...any) {
	a.base.Debug(fmt.Sprintf(msg, args...))
}

// OpenBackend opens a BadgerDB database at the specified path, creating the
// directory if needed. With inMemory set, the path is ignored and nothing
// touches disk.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// MkdirAll also rejects a path occupied by a regular file.
		if err := os.MkdirAll(filePath, 0o755); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &slogAdapter{base: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a BadgerDB transaction and discards it afterwards.
// fn commits explicitly when its writes should stick; a transaction that
// was never committed rolls back on the deferred Discard.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a named BadgerDB sequence for generating record IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// WithTransaction runs fn inside a committed write transaction.
// Implements the storage.Repository transaction contract.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilar scans every stored document vector and returns those whose
// cosine similarity to vector clears minSimilarity, best first. Vectors are
// stored normalized, so similarity reduces to a dot product.
func (b *Backend) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredDocument, error) {
	var results []*core.ScoredDocument

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if isDocumentIndexKey(item.Key()) {
				continue
			}

			var doc *core.Document
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			// Unembedded documents cannot be scored.
			if doc == nil || len(doc.Vector) == 0 {
				continue
			}

			if score := dotProduct(vector, doc.Vector); score >= minSimilarity {
				results = append(results, &core.ScoredDocument{
					Document: doc,
					Score:    score,
				})
			}
		}

		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.ScoredDocument) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// isDocumentIndexKey reports whether key belongs to one of the document
// indexes sharing the primary prefix (date, term, or the ID sequence).
func isDocumentIndexKey(key []byte) bool {
	return bytes.Equal(key, []byte(documentIDSeq)) ||
		bytes.HasPrefix(key, []byte(documentDatePrefix)) ||
		bytes.HasPrefix(key, []byte(documentTermPrefix))
}

// dotProduct multiplies two vectors, stopping at the shorter length.
func dotProduct(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
