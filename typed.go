package may

import "fmt"

// GetAs returns the value stored under key decoded into T. It is the
// typed counterpart of [Store.Get]: where Get yields the codec's
// generic representation, GetAs recovers a concrete type.
//
// A stored value that does not fit T is reported as absent, not as an
// error, mirroring a checked cast. Package-level rather than a method
// because Go methods cannot take type parameters.
func GetAs[T any](s *Store, key string) (T, bool, error) {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.metrics.op("get")

	blob, found, err := s.readBlob(key)
	if err != nil || !found {
		return zero, false, err
	}
	var v T
	if err := s.codec.Unmarshal(blob, &v); err != nil {
		// Corruption and type mismatch are indistinguishable here;
		// both map to absence.
		s.metrics.decodeFailure()
		s.logger.Debug("may: value does not decode into requested type", "key", key, "err", err)
		return zero, false, nil
	}
	return v, true, nil
}

// GetAllAs returns every key starting with prefix mapped to its value
// decoded into T, skipping entries that do not fit T. The typed
// counterpart of [Store.GetAll].
func GetAllAs[T any](s *Store, prefix string) (map[string]T, error) {
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

	all := map[string]T{}
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
		}
		var v T
		if err := s.codec.Unmarshal(blob, &v); err != nil {
			s.metrics.decodeFailure()
			s.logger.Debug("may: value does not decode into requested type", "key", key, "err", err)
			continue
		}
		all[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}
	return all, nil
}
