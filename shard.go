package groupstream

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// ShardString builds a key selector that maps string elements onto a fixed
// number of shard groups by hashing with xxh3. Useful when the natural key
// space is unbounded but the consumer wants a bounded, stable set of groups.
//
// Parameters:
//   - shards: Number of shard groups, must be positive
//
// Returns:
//   - KeySelector[string, uint32]: Selector yielding the element's shard index
//
// Example:
//
//	op, err := groupstream.GroupBy(src, groupstream.ShardString(16))
func ShardString(shards int) KeySelector[string, uint32] {
	if shards <= 0 {
		return func(string) (uint32, error) {
			return 0, fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfig, shards)
		}
	}

	n := uint64(shards)

	return func(elem string) (uint32, error) {
		return uint32(xxh3.HashString(elem) % n), nil
	}
}

// ShardBytes is the []byte counterpart of ShardString.
func ShardBytes(shards int) KeySelector[[]byte, uint32] {
	if shards <= 0 {
		return func([]byte) (uint32, error) {
			return 0, fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfig, shards)
		}
	}

	n := uint64(shards)

	return func(elem []byte) (uint32, error) {
		return uint32(xxh3.Hash(elem) % n), nil
	}
}

// ShardStringSeed is ShardString with an explicit hash seed, letting two
// operators over the same key space produce decorrelated shard assignments.
func ShardStringSeed(shards int, seed uint64) KeySelector[string, uint32] {
	if shards <= 0 {
		return func(string) (uint32, error) {
			return 0, fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfig, shards)
		}
	}

	n := uint64(shards)

	return func(elem string) (uint32, error) {
		return uint32(xxh3.HashStringSeed(elem, seed) % n), nil
	}
}
