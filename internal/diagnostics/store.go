// Package diagnostics provides the append-only diagnostics store for the
// host process, backed by BadgerDB.
//
// BadgerDB is an embedded, pure-Go key-value database; it needs no external
// dependencies, which keeps the host a single self-contained binary.
//
// The store holds three kinds of entries, stored with prefixed keys:
//   - sample:<timestamp>:<seq>  → JSON resource sample
//   - update:<timestamp>:<seq>  → JSON update-state transition
//   - meta:last-check           → last update-check metadata
//
// Writes are best-effort: a failed append is logged and ignored by callers,
// because diagnostics must never interrupt monitoring or the update flow.
// Flush forces pending writes to disk and is called before an update
// install replaces the process.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/scottieai/collab-hub/host/internal/errors"
	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Entry kind constants, used as key prefixes.
const (
	KindSample = "sample"
	KindUpdate = "update"

	lastCheckKey = "meta:last-check"
)

// LastCheck records the most recent completed update check.
type LastCheck struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version"`
}

// Store manages the BadgerDB-backed diagnostics log
type Store struct {
	db     *badger.DB
	path   string
	retain int
	seq    atomic.Uint64
	logger *logger.Logger
}

// NewStore opens the diagnostics store at the given path. retain bounds the
// number of entries kept per kind; older entries are pruned opportunistically.
func NewStore(path string, retain int) (*Store, error) {
	log := logger.NewComponentLogger("Diagnostics")

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB's default logger

	log.Info("Opening diagnostics store at %s", path)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open diagnostics store at %s", path)
	}

	s := &Store{
		db:     db,
		path:   path,
		retain: retain,
		logger: log,
	}

	log.Info("Diagnostics store ready (retain=%d entries per kind)", retain)
	return s, nil
}

// Append records a diagnostics entry of the given kind. The payload is
// JSON-serialized. Failures are returned for logging but carry no further
// consequence for the caller.
func (s *Store) Append(kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to serialize %s entry", kind)
	}

	seq := s.seq.Add(1)
	key := fmt.Sprintf("%s:%s:%08d", kind, time.Now().UTC().Format(time.RFC3339Nano), seq)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return errors.Wrap(err, "failed to append %s entry", kind)
	}

	// Prune occasionally rather than per append.
	if s.retain > 0 && seq%128 == 0 {
		if err := s.prune(kind); err != nil {
			s.logger.Warn("Failed to prune %s entries: %v", kind, err)
		}
	}

	return nil
}

// Recent returns up to n most recent entries of the given kind, newest first.
func (s *Store) Recent(kind string, n int) ([]json.RawMessage, error) {
	entries := make([]json.RawMessage, 0, n)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(kind + ":")
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last key in the prefix range.
		seek := append([]byte(kind+":"), 0xFF)
		for it.Seek(seek); it.Valid() && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				entries = append(entries, json.RawMessage(append([]byte(nil), val...)))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to read %s entries", kind)
	}

	return entries, nil
}

// Count returns the number of stored entries of the given kind.
func (s *Store) Count(kind string) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(kind + ":")
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	if err != nil {
		return 0, errors.Wrap(err, "failed to count %s entries", kind)
	}

	return count, nil
}

// SetLastCheck persists metadata about the most recent update check.
func (s *Store) SetLastCheck(lc LastCheck) error {
	data, err := json.Marshal(lc)
	if err != nil {
		return errors.Wrap(err, "failed to serialize last-check metadata")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lastCheckKey), data)
	})
	if err != nil {
		return errors.Wrap(err, "failed to persist last-check metadata")
	}

	return nil
}

// GetLastCheck returns the persisted last-check metadata, or a zero value
// when no check has been recorded yet.
func (s *Store) GetLastCheck() (LastCheck, error) {
	var lc LastCheck

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastCheckKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &lc)
		})
	})

	if err == badger.ErrKeyNotFound {
		return LastCheck{}, nil
	}
	if err != nil {
		return LastCheck{}, errors.Wrap(err, "failed to read last-check metadata")
	}

	return lc, nil
}

// Flush forces pending writes to disk. Called before the process is
// replaced by an update install.
func (s *Store) Flush() error {
	if err := s.db.Sync(); err != nil {
		return errors.Wrap(err, "failed to flush diagnostics store")
	}
	return nil
}

// Close gracefully shuts down the store
func (s *Store) Close() error {
	s.logger.Info("Closing diagnostics store...")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return errors.Wrap(err, "failed to close diagnostics store")
		}
	}

	return nil
}

// prune deletes the oldest entries of a kind beyond the retain bound.
func (s *Store) prune(kind string) error {
	count, err := s.Count(kind)
	if err != nil {
		return err
	}
	excess := count - s.retain
	if excess <= 0 {
		return nil
	}

	keys := make([][]byte, 0, excess)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(kind + ":")
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(keys) < excess; it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
