package may

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"
)

// The whole datastore is one table. The primary key is the hash of the
// key string, not the key itself; see the package documentation for the
// collision trade-off this implies.
const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS store (id INTEGER PRIMARY KEY, key TEXT NOT NULL, value BLOB NOT NULL)`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS index_store_key ON store (key)`
)

// Options configures a [Store]. The zero value (or a nil pointer) is
// valid and selects the defaults documented per field.
type Options struct {
	// Logger receives diagnostics, currently only the warning emitted
	// when a stored blob fails to decode. Defaults to [slog.Default].
	Logger *slog.Logger

	// Codec encodes and decodes stored values. Defaults to a shared
	// [MsgpackCodec].
	Codec Codec

	// Hash derives the 64-bit row id from a key. It must be a pure
	// function of the key's content. Defaults to xxhash. Changing the
	// hash makes existing rows unreachable by key.
	Hash func(key string) int64

	// Metrics, when non-nil, receives operation and decode-failure
	// counters. Nothing is registered when nil.
	Metrics prometheus.Registerer
}

// Store is a persistent key-value store backed by a single SQLite file.
// Create one with [Open] and release it with [Store.Close].
type Store struct {
	path    string
	logger  *slog.Logger
	codec   Codec
	hash    func(key string) int64
	metrics *storeMetrics

	// mu is the reader/writer gate over db. Reads take RLock, every
	// mutation (including bootstrap and the journal-mode toggles) takes
	// Lock. Helpers below the public API assume the lock is already
	// held and must not re-acquire it.
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open opens the datastore at path, creating the file and its schema if
// they do not exist yet, and returns a ready handle.
//
// Callers own the handle and must close it exactly once. Hold at most
// one open Store per physical file; see the package documentation.
func Open(path string, opts *Options) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.Default(),
		codec:  defaultCodec,
		hash:   defaultHash,
	}
	if opts != nil {
		if opts.Logger != nil {
			s.logger = opts.Logger
		}
		if opts.Codec != nil {
			s.codec = opts.Codec
		}
		if opts.Hash != nil {
			s.hash = opts.Hash
		}
		s.metrics = newStoreMetrics(opts.Metrics)
	}

	// case_sensitive_like is per connection, so it is set through the
	// DSN where the driver applies it to every pooled connection;
	// without it LIKE would match prefixes ASCII case-insensitively.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)&_pragma=case_sensitive_like(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore %s: %w", path, err)
	}
	s.db = db
	if err := s.bootstrap(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap idempotently creates the row table and the secondary index
// on the key column. The first statement is also what forces the driver
// to actually open or create the file, so an unusable path surfaces
// here rather than lazily on first use.
func (s *Store) bootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to bootstrap datastore %s: %w", s.path, err)
		}
	}
	return nil
}

// EnableWAL switches the datastore to write-ahead logging. The mode is
// persisted in the database file.
func (s *Store) EnableWAL() error {
	return s.setJournalMode("wal")
}

// DisableWAL switches the datastore back to the default rollback
// journal.
func (s *Store) DisableWAL() error {
	return s.setJournalMode("delete")
}

func (s *Store) setJournalMode(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The pragma reports the mode actually in effect; SQLite keeps the
	// old mode instead of erroring when it cannot switch.
	var got string
	if err := s.db.QueryRow("PRAGMA journal_mode = " + mode).Scan(&got); err != nil {
		return fmt.Errorf("failed to set journal mode %s on %s: %w", mode, s.path, err)
	}
	if !strings.EqualFold(got, mode) {
		return fmt.Errorf("datastore %s kept journal mode %s instead of %s", s.path, got, mode)
	}
	return nil
}

// Close releases the underlying database handle. Closing an already
// closed Store is a no-op; any other operation on a closed Store fails.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close datastore %s: %w", s.path, err)
	}
	return nil
}
