package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ConversationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AppendTurns adds one or more turns to the conversation.
func (r *ConversationRepository) AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			// Always generate new ID from sequence so order is stable
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			turn.Id = core.ID(nextID)

			turn.InsertedAt = time.Now().UTC()
			turn.UpdatedAt = turn.InsertedAt
			// The date index cannot hold a zero time
			if turn.Timestamp.IsZero() {
				turn.Timestamp = turn.InsertedAt
			}

			// Store primary record
			key := makeTurnKey(turn.Id)
			value := storage.MarshalTurn(turn)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index
			dateKey := makeTurnDateKey(turn.Timestamp, turn.Id)
			if err := tx.Set(dateKey, storage.MarshalID(turn.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return turns, err
}

// UpdateTurns updates existing turns.
func (r *ConversationRepository) UpdateTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			key := makeTurnKey(turn.Id)

			// Read old turn to detect changes
			old, err := r.readTurn(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Update timestamp
			turn.UpdatedAt = time.Now().UTC()

			// Store updated record
			value := storage.MarshalTurn(turn)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index if timestamp changed
			if !old.Timestamp.Equal(turn.Timestamp) {
				oldDateKey := makeTurnDateKey(old.Timestamp, old.Id)
				if err := tx.Delete(oldDateKey); err != nil {
					return err
				}
				newDateKey := makeTurnDateKey(turn.Timestamp, turn.Id)
				if err := tx.Set(newDateKey, storage.MarshalID(turn.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return turns, err
}

// GetTurn retrieves a single turn by ID.
func (r *ConversationRepository) GetTurn(ctx context.Context, id core.ID) (*core.Turn, error) {
	var result *core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTurnKey(id)
		var err error
		result, err = r.readTurn(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecentTurns retrieves the N most recent turns, newest first.
func (r *ConversationRepository) GetRecentTurns(ctx context.Context, limit int) ([]*core.Turn, error) {
	var results []*core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent turns first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key in the turn date index
		startKey := makePartialTurnDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))

		prefix := []byte(turnDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()

			// Check if we're still in the turn date index
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var turnID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				turnID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full turn
			turnKey := makeTurnKey(turnID)
			turn, err := r.readTurn(tx, turnKey)
			if err != nil {
				return err
			}
			if turn != nil {
				results = append(results, turn)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// GetTurnsBefore retrieves turns older than the given turn ID, newest first.
// This is used for lazy loading older history.
func (r *ConversationRepository) GetTurnsBefore(ctx context.Context, beforeID core.ID, limit int) ([]*core.Turn, error) {
	var results []*core.Turn

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// First, get the reference turn to find its timestamp
		refKey := makeTurnKey(beforeID)
		refTurn, err := r.readTurn(tx, refKey)
		if err != nil {
			return err
		}
		if refTurn == nil {
			return storage.ErrNotFound
		}

		// Use reverse iterator to go backwards in time from this turn
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Start seeking from the reference turn's date key.
		// This will position us at or just before this turn.
		startKey := makeTurnDateKey(refTurn.Timestamp, beforeID)

		prefix := []byte(turnDatePrefix + ":")

		count := 0
		foundRef := false

		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()

			// Check if we're still in the turn date index
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			// Read the ID from the index
			var turnID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				turnID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Skip the reference turn itself
			if turnID == beforeID {
				foundRef = true
				continue
			}

			// Only include turns after we've passed the reference
			if !foundRef {
				continue
			}

			// Look up the full turn
			turnKey := makeTurnKey(turnID)
			turn, err := r.readTurn(tx, turnKey)
			if err != nil {
				return err
			}
			if turn != nil {
				results = append(results, turn)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// GetTurnsByDateRange retrieves turns within a time range.
func (r *ConversationRepository) GetTurnsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Turn, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialTurnDateKey(start)
		endKey := makePartialTurnDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			// Read the ID from the index
			var turnID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				turnID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full turn
			turnKey := makeTurnKey(turnID)
			turn, err := r.readTurn(tx, turnKey)
			if err != nil {
				return err
			}
			if turn != nil {
				results = append(results, turn)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteTurns removes turns by their IDs.
func (r *ConversationRepository) DeleteTurns(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeTurnKey(id)

			// Read the turn to find its date index entry
			turn, err := r.readTurn(tx, key)
			if err != nil {
				return err
			}
			if turn == nil {
				return storage.ErrNotFound
			}

			// Delete from date index
			dateKey := makeTurnDateKey(turn.Timestamp, turn.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ClearTurns removes the entire conversation history.
func (r *ConversationRepository) ClearTurns(ctx context.Context) error {
	// Collect keys first; deleting while iterating invalidates the iterator.
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(turnPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if bytes.Equal(key, []byte(turnIDSeq)) {
				continue
			}
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountTurns returns the number of stored turns.
func (r *ConversationRepository) CountTurns(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(turnPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()

			// Skip index keys (date index and sequence key)
			if bytes.Equal(key, []byte(turnIDSeq)) ||
				bytes.HasPrefix(key, []byte(turnDatePrefix)) {
				continue
			}
			count++
		}
		return nil
	}, false)

	return count, err
}

// readTurn reads a turn from the transaction.
func (r *ConversationRepository) readTurn(tx *badger.Txn, key []byte) (*core.Turn, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var turn *core.Turn
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		turn, unmarshalErr = storage.UnmarshalTurn(val)
		return unmarshalErr
	})
	return turn, err
}
