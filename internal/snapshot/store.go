// Package snapshot persists the store state as a single msgpack-encoded
// record in an embedded badger database. Persistence is an external
// subscriber to the store's mutation events: it debounces writes and never
// blocks a mutation, and the in-memory store stays the source of truth when
// a write fails.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kemkem23/raceboard/internal/domain"
)

var snapshotKey = []byte("snapshot/current")

// Store is the badger-backed snapshot destination.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the badger database under dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot db: %w", err)
	}
	return &Store{db: db}, nil
}

// Save overwrites the snapshot record.
func (s *Store) Save(snap domain.Snapshot) error {
	buf, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, buf)
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot. The second return value reports
// whether a record existed.
func (s *Store) Load() (domain.Snapshot, bool, error) {
	var snap domain.Snapshot
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, found, nil
}

// Close flattens and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSeed reads the JSON seed file used when no snapshot exists yet.
func LoadSeed(path string) (domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return snap, nil
}
