package may

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	hasSQL       = `SELECT EXISTS (SELECT 1 FROM store WHERE id = ?)`
	getSQL       = `SELECT value FROM store WHERE id = ?`
	getAllSQL    = `SELECT key, value FROM store WHERE key LIKE ? ESCAPE '\'`
	keysSQL      = `SELECT key FROM store WHERE key LIKE ? ESCAPE '\' ORDER BY key LIMIT ? OFFSET ?`
	putSQL       = `INSERT OR REPLACE INTO store (id, key, value) VALUES (?, ?, ?)`
	removeSQL    = `DELETE FROM store WHERE id = ?`
	removeAllSQL = `DELETE FROM store WHERE key LIKE ? ESCAPE '\'`
)

// Has reports whether a value is stored under key.
func (s *Store) Has(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.metrics.op("has")

	var found bool
	if err := s.db.QueryRow(hasSQL, s.hash(key)).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check %q: %w", key, err)
	}
	return found, nil
}

// Get returns the value stored under key, decoded generically (structs
// come back as maps; use [GetAs] to recover a concrete type). The
// second return is false when no value is present, which includes the
// case of a stored blob that fails to decode: such a blob is logged and
// treated as absent rather than surfaced as an error.
func (s *Store) Get(key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.metrics.op("get")

	blob, found, err := s.readBlob(key)
	if err != nil || !found {
		return nil, false, err
	}
	var v any
	if err := s.codec.Unmarshal(blob, &v); err != nil {
		s.softDecodeFailure(key, err)
		return nil, false, nil
	}
	return v, true, nil
}

// GetAll returns every key starting with prefix mapped to its decoded
// value. An empty prefix selects the whole datastore. Entries whose
// blob fails to decode are logged and skipped.
func (s *Store) GetAll(prefix string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.metrics.op("getall")

	rows, err := s.db.Query(getAllSQL, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	all := map[string]any{}
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
		}
		var v any
		if err := s.codec.Unmarshal(blob, &v); err != nil {
			s.softDecodeFailure(key, err)
			continue
		}
		all[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}
	return all, nil
}

// Keys returns the keys starting with prefix in ascending lexicographic
// order, skipping the first offset matches and returning at most limit
// keys. A negative offset means 0 and a negative limit means unbounded.
func (s *Store) Keys(prefix string, offset, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.metrics.op("keys")

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = -1 // SQLite: LIMIT -1 is unbounded.
	}
	rows, err := s.db.Query(keysSQL, likePrefix(prefix), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys for prefix %q: %w", prefix, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to list keys for prefix %q: %w", prefix, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys for prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Put stores value under key, replacing any previous value. A nil
// value deletes the key, like [Store.Remove].
func (s *Store) Put(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		s.metrics.op("remove")
		_, err := s.deleteKey(key)
		return err
	}
	s.metrics.op("put")

	blob, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	if _, err := s.db.Exec(putSQL, s.hash(key), key, blob); err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Remove deletes the value stored under key and reports whether one was
// present.
func (s *Store) Remove(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("remove")

	return s.deleteKey(key)
}

// RemoveAll deletes every key starting with prefix and reports whether
// at least one was deleted. An empty prefix empties the datastore.
func (s *Store) RemoveAll(prefix string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.op("removeall")

	res, err := s.db.Exec(removeAllSQL, likePrefix(prefix))
	if err != nil {
		return false, fmt.Errorf("failed to delete prefix %q: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows for prefix %q: %w", prefix, err)
	}
	return n > 0, nil
}

// readBlob fetches the raw blob for key. Callers must hold mu in at
// least read mode.
func (s *Store) readBlob(key string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRow(getSQL, s.hash(key)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return blob, true, nil
}

// deleteKey deletes the row for key. Callers must hold mu in write
// mode.
func (s *Store) deleteKey(key string) (bool, error) {
	res, err := s.db.Exec(removeSQL, s.hash(key))
	if err != nil {
		return false, fmt.Errorf("failed to delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows for %q: %w", key, err)
	}
	return n > 0, nil
}

// softDecodeFailure records the one recoverable failure mode: a stored
// blob that cannot be reconstructed into a value. The entry is treated
// as absent.
func (s *Store) softDecodeFailure(key string, err error) {
	s.metrics.decodeFailure()
	s.logger.Warn("may: discarding value that failed to decode", "key", key, "err", err)
}

// likePrefix turns a literal prefix into a LIKE pattern, escaping the
// wildcard characters so that a prefix containing % or _ still matches
// literally.
func likePrefix(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1)
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; c {
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('%')
	return b.String()
}
