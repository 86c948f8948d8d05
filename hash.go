package ams

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/dgryski/go-metro"
	"github.com/spaolacci/murmur3"
)

// HashFunc selects the seeded 32-bit hash that decides each counter's sign for an item.
type HashFunc uint8

const (
	// HashXXH32 is 32-bit xxHash. This is the default.
	HashXXH32 HashFunc = iota
	// HashMurmur3 is 32-bit MurmurHash3 (x86_32).
	HashMurmur3
	// HashMetro is 64-bit MetroHash truncated to its low 32 bits.
	HashMetro
)

// Sum32 hashes data under the given seed.
func (h HashFunc) Sum32(seed uint32, data []byte) uint32 {
	switch h {
	case HashMurmur3:
		return murmur3.Sum32WithSeed(data, seed)
	case HashMetro:
		return uint32(metro.Hash64(data, uint64(seed)))
	default:
		return xxhash.Checksum32S(data, seed)
	}
}

// Sign returns +1 or -1 from the least significant bit of the item's hash under seed.
func (h HashFunc) Sign(seed uint32, data []byte) int64 {
	return int64(h.Sum32(seed, data)&1)*2 - 1
}

// Valid returns whether h names a known hash family.
func (h HashFunc) Valid() bool { return h <= HashMetro }

func (h HashFunc) String() string {
	switch h {
	case HashXXH32:
		return "xxh32"
	case HashMurmur3:
		return "murmur3"
	case HashMetro:
		return "metro"
	}
	return fmt.Sprintf("HashFunc(%d)", uint8(h))
}

// ParseHashFunc returns the hash family named by s, as printed by [HashFunc.String].
func ParseHashFunc(s string) (HashFunc, error) {
	for h := HashXXH32; h.Valid(); h++ {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown hash %q", ErrInvalidParameter, s)
}
