package may

import "github.com/cespare/xxhash/v2"

// defaultHash derives the 64-bit row id for a key. It only needs to be
// deterministic and well distributed, not cryptographic; collisions are
// tolerated by the data model (see the package documentation).
func defaultHash(key string) int64 {
	return int64(xxhash.Sum64String(key))
}
