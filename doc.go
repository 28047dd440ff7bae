// Package may is an embedded, persistent key-value store backed by a
// single SQLite file.
//
// # Overview
//
// A [Store] maps string keys to arbitrary Go values. Values are encoded
// to opaque blobs by a [Codec] (MessagePack by default) and kept in one
// table whose integer primary key is a 64-bit hash of the key string,
// so point lookups never touch the key column. The key string itself is
// stored verbatim and carries a secondary index for ordered prefix
// scans ([Store.Keys], [Store.GetAll], [Store.RemoveAll]).
//
// # Key hashing and collisions
//
// Because the physical primary key is the hash of the key and not the
// key itself, two distinct keys that hash to the same id share a row: a
// put under the second key replaces the first key's row entirely, and a
// get returns whatever row currently holds the id without comparing key
// strings. This trades strict correctness under collision for fast
// point lookups. With the default 64-bit xxhash the odds are remote;
// callers for whom any ambiguity is unacceptable can supply their own
// hash through [Options].
//
// # Concurrency
//
// A Store is safe for concurrent use by multiple goroutines. Reads run
// in parallel; any mutation holds an exclusive lock for the whole
// encode-hash-write sequence, so readers never observe a half-written
// row. The lock only coordinates goroutines within one Store: opening
// two Stores on the same file is unsupported and may corrupt data,
// since SQLite permits a single writer per file.
//
// # Durability
//
// [Store.EnableWAL] and [Store.DisableWAL] switch the underlying
// journal mode between write-ahead logging and the rollback journal.
// The setting is persisted in the database file and has no effect on
// the data model.
package may
