package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// PackRepository implements storage.PackRepository for BadgerDB.
type PackRepository struct {
	backend *Backend
}

var _ storage.PackRepository = (*PackRepository)(nil)

// NewPackRepository creates a new PackRepository.
func NewPackRepository(backend *Backend) (*PackRepository, error) {
	return &PackRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PackRepository has no resources to release.
func (r *PackRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *PackRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// RecordInstall saves (or replaces) the install record for a pack name.
func (r *PackRepository) RecordInstall(ctx context.Context, install *core.PackInstall) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if install.InstalledAt.IsZero() {
			install.InstalledAt = time.Now().UTC()
		}
		key := makePackInstallKey(install.Name)
		value := storage.MarshalPackInstall(install)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetInstall retrieves the install record for a pack name.
func (r *PackRepository) GetInstall(ctx context.Context, name string) (*core.PackInstall, error) {
	var result *core.PackInstall
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePackInstallKey(name)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalPackInstall(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListInstalls returns all install records, ordered by pack name.
func (r *PackRepository) ListInstalls(ctx context.Context) ([]*core.PackInstall, error) {
	var results []*core.PackInstall
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(packInstallPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var install *core.PackInstall
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				install, unmarshalErr = storage.UnmarshalPackInstall(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			if install != nil {
				results = append(results, install)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.PackInstall) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// RemoveInstall deletes the install record for a pack name.
func (r *PackRepository) RemoveInstall(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePackInstallKey(name)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
