package flashkv

import "encoding/binary"

// WordSize is the minimum write granularity of the flash devices this
// package targets. All offsets, lengths, and structure sizes are
// multiples of it.
const WordSize = 4

// Swap header markers. The two values differ in exactly one bit (bit
// 1), so a region can be retired from ACTIVE to INACTIVE with a single
// flash write that only clears that bit — legal without an erase.
const (
	swapMarkerActive   uint32 = 0xBE5CC5EE
	swapMarkerInactive uint32 = 0xBE5CC5EC
)

// swapHeaderSize is the on-flash size of the swap header: just the
// 32-bit marker, already word-aligned.
const swapHeaderSize = 4

// Record header flag bits. Polarity is inverted: 1 means "not yet set",
// 0 means "set". Every transition is therefore a single-bit clear,
// which is legal on flash without an erase.
const (
	flagAddBegin    uint16 = 1 << 0 // 0 once the header+payload write has begun
	flagAddComplete uint16 = 1 << 1 // 0 once the record is committed
	flagDelete      uint16 = 1 << 2 // 0 once the record is tombstoned
	flagFirst       uint16 = 1 << 3 // 0 if this record starts a new chain for its key
)

// allFlagsUnset is the flags value of a record that has never been
// touched: every defined bit reads as "not yet set".
const allFlagsUnset uint16 = 0xFFFF

// recordReserved is the reserved header field. It is written once at
// creation and never rewritten.
const recordReserved uint16 = 0xFFFF

// recordHeaderSize is the fixed, word-aligned size of a record header:
// key, flags, length, reserved, each 16 bits.
const recordHeaderSize = 8

// MaxPayloadSize is the largest payload a single record may carry.
const MaxPayloadSize = 256

// recordHeader is the 8-byte fixed structure that precedes every
// record's payload.
type recordHeader struct {
	key      uint16
	flags    uint16
	length   uint16
	reserved uint16
}

func decodeRecordHeader(b []byte) recordHeader {
	return recordHeader{
		key:      binary.LittleEndian.Uint16(b[0:2]),
		flags:    binary.LittleEndian.Uint16(b[2:4]),
		length:   binary.LittleEndian.Uint16(b[4:6]),
		reserved: binary.LittleEndian.Uint16(b[6:8]),
	}
}

func (h recordHeader) encode() []byte {
	b := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], h.key)
	binary.LittleEndian.PutUint16(b[2:4], h.flags)
	binary.LittleEndian.PutUint16(b[4:6], h.length)
	binary.LittleEndian.PutUint16(b[6:8], h.reserved)
	return b
}

func (h recordHeader) addBegin() bool    { return h.flags&flagAddBegin == 0 }
func (h recordHeader) addComplete() bool { return h.flags&flagAddComplete == 0 }
func (h recordHeader) deleted() bool     { return h.flags&flagDelete == 0 }
func (h recordHeader) first() bool       { return h.flags&flagFirst == 0 }

// valid implements the Glossary's definition (authoritative over the
// mis-worded invariant 4 in §3): a record is valid iff it has NOT been
// tombstoned (Delete still set) and is committed (AddComplete cleared).
func (h recordHeader) valid() bool {
	return !h.deleted() && h.addComplete()
}

// recordSize returns the total on-flash size of a record (header plus
// payload padded up to the next word boundary).
func recordSize(payloadLen int) int {
	return recordHeaderSize + padWord(payloadLen)
}

func padWord(n int) int {
	return (n + WordSize - 1) &^ (WordSize - 1)
}

func alignedWord(n int64) bool {
	return n&(WordSize-1) == 0
}
