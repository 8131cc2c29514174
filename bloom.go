package flashkv

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// accelerator is an in-memory bloom filter over the keys currently
// present in the active region. It is never consulted for
// correctness — only to let Get and Delete skip their linear scan
// when a key is provably absent. Grounded on the retrieval pack's
// document-store teacher, which uses the identical fixed-array,
// double-hashed design to the same end (avoiding a full scan for a
// key that provably isn't there).
//
// Sized for a representative embedded key space: a few thousand
// distinct 16-bit keys at a low false-positive rate. A false positive
// only costs a wasted linear scan, never a wrong answer.
const (
	bloomSize = 1024 // bytes, 8192 bits
	bloomK    = 5
)

type accelerator struct {
	bits []byte
}

func newAccelerator() *accelerator {
	return &accelerator{bits: make([]byte, bloomSize)}
}

func (a *accelerator) add(key uint16) {
	for _, pos := range bloomPositions(key) {
		a.bits[pos/8] |= 1 << (pos % 8)
	}
}

func (a *accelerator) contains(key uint16) bool {
	for _, pos := range bloomPositions(key) {
		if a.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

func (a *accelerator) reset() {
	clear(a.bits)
}

// bloomPositions returns bloomK bit positions for key using double
// hashing (FNV-64a + FNV-32a), the same scheme as the teacher's bloom
// filter.
func bloomPositions(key uint16) [bloomK]uint {
	var kb [2]byte
	binary.LittleEndian.PutUint16(kb[:], key)

	h64 := fnv.New64a()
	h64.Write(kb[:])
	x := h64.Sum64()

	h32 := fnv.New32a()
	h32.Write(kb[:])
	y := uint(h32.Sum32())

	nbits := uint(bloomSize * 8)
	var pos [bloomK]uint
	for i := range bloomK {
		pos[i] = (uint(x) + uint(i)*y) % nbits
	}
	return pos
}

// rebuildAccelerator scans the active region once, on Init and after
// every swap, to seed
// the accelerator with every key currently present (valid or not —
// a stale tombstoned key merely costs one wasted scan later, and
// omitting it would risk a false negative if a tombstoned record is
// later resurrected by nothing; in practice every key that was ever
// written stays flagged present for the life of the region).
func (s *Store) rebuildAccelerator(ctx context.Context) error {
	return s.forEachRecord(ctx, s.swapIdx, swapHeaderSize, s.swapUsed, func(_, _ int64, hdr recordHeader) bool {
		s.accel.add(hdr.key)
		return true
	})
}
