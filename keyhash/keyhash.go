// Package keyhash derives 16-bit flashkv.Store keys from arbitrary
// string names. It is the hash primitive for the "settings layer"
// SPEC_FULL.md §1 names as an external collaborator the storage core
// does not implement — flashkv itself has no notion of named keys,
// only uint16 ones.
//
// Grounded on the retrieval pack's document-store teacher, which
// offers the same three-algorithm choice (xxHash3 default, FNV-1a for
// zero external dependencies, Blake2b for best distribution) for the
// analogous problem of turning a label into a fixed-width identifier.
package keyhash

import (
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm selects the hash function Key uses.
type Algorithm int

const (
	// XXHash3 is the default: fastest, good distribution.
	XXHash3 Algorithm = iota
	// FNV1a avoids pulling in an external dependency.
	FNV1a
	// Blake2b gives the best distribution at extra cost.
	Blake2b
)

// Key derives a 16-bit store key from name using alg. Collisions are
// possible (the whole name space is folded into 16 bits); callers
// that cannot tolerate them should keep an explicit name-to-key table
// instead.
func Key(name string, alg Algorithm) uint16 {
	switch alg {
	case FNV1a:
		h := fnv.New32a()
		h.Write([]byte(name))
		return fold32(h.Sum32())
	case Blake2b:
		h, _ := blake2b.New256(nil)
		h.Write([]byte(name))
		sum := h.Sum(nil)
		return uint16(sum[0])<<8 | uint16(sum[1])
	default:
		return fold64(xxh3.HashString(name))
	}
}

func fold64(h uint64) uint16 {
	return uint16(h) ^ uint16(h>>16) ^ uint16(h>>32) ^ uint16(h>>48)
}

func fold32(h uint32) uint16 {
	return uint16(h) ^ uint16(h>>16)
}
