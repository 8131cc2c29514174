package flashkv

import "testing"

// TestSwapMarkersDifferByOneBit guards the crash-safety argument in
// §4.5: retiring a region from ACTIVE to INACTIVE must be legal as a
// single flash write that only clears bits.
func TestSwapMarkersDifferByOneBit(t *testing.T) {
	diff := swapMarkerActive ^ swapMarkerInactive
	if diff == 0 || diff&(diff-1) != 0 {
		t.Fatalf("ACTIVE ^ INACTIVE = %#x, want exactly one bit set", diff)
	}
	if swapMarkerActive&diff == 0 {
		t.Fatalf("ACTIVE marker does not have the differing bit set; INACTIVE would require a 0->1 transition")
	}
}

// TestRecordHeaderEncodeDecodeRoundTrip verifies the fixed 8-byte
// little-endian layout survives an encode/decode cycle unchanged.
func TestRecordHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := recordHeader{key: 0x1234, flags: 0xFFF0, length: 250, reserved: recordReserved}
	buf := h.encode()
	if len(buf) != recordHeaderSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), recordHeaderSize)
	}

	got := decodeRecordHeader(buf)
	if got != h {
		t.Errorf("decode(encode(h)) = %+v, want %+v", got, h)
	}
}

// TestRecordHeaderFieldByteOrder pins the little-endian layout field
// by field, since any implementation reading this store's flash image
// must agree on byte order bit-exactly.
func TestRecordHeaderFieldByteOrder(t *testing.T) {
	h := recordHeader{key: 0x0201, flags: 0x0403, length: 0x0605, reserved: 0x0807}
	buf := h.encode()
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("byte %d = %#x, want %#x", i, buf[i], b)
		}
	}
}

func TestFreshRecordFlagsAreAllUnset(t *testing.T) {
	h := recordHeader{flags: allFlagsUnset}
	if h.addBegin() || h.addComplete() || h.deleted() || h.first() {
		t.Errorf("fresh flags %#x should read false for every predicate", h.flags)
	}
}

func TestValidRequiresAddCompleteClearedAndDeleteSet(t *testing.T) {
	cases := []struct {
		name  string
		flags uint16
		want  bool
	}{
		{"fresh, nothing cleared", allFlagsUnset, false},
		{"only AddBegin cleared (write in progress)", allFlagsUnset &^ flagAddBegin, false},
		{"AddBegin and AddComplete cleared (committed, live)", allFlagsUnset &^ flagAddBegin &^ flagAddComplete, true},
		{"committed but tombstoned", allFlagsUnset &^ flagAddBegin &^ flagAddComplete &^ flagDelete, false},
		{"committed, first, live", allFlagsUnset &^ flagAddBegin &^ flagAddComplete &^ flagFirst, true},
	}
	for _, c := range cases {
		h := recordHeader{flags: c.flags}
		if got := h.valid(); got != c.want {
			t.Errorf("%s: valid() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCommittedRequiresAddBeginAndAddCompleteCleared(t *testing.T) {
	cases := []struct {
		name  string
		flags uint16
		want  bool
	}{
		{"fresh", allFlagsUnset, false},
		{"AddBegin cleared only", allFlagsUnset &^ flagAddBegin, false},
		{"both cleared", allFlagsUnset &^ flagAddBegin &^ flagAddComplete, true},
	}
	for _, c := range cases {
		h := recordHeader{flags: c.flags}
		if got := h.committed(); got != c.want {
			t.Errorf("%s: committed() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRecordSizePadsToWord(t *testing.T) {
	cases := []struct {
		payload int
		want    int
	}{
		{0, recordHeaderSize},
		{1, recordHeaderSize + 4},
		{4, recordHeaderSize + 4},
		{5, recordHeaderSize + 8},
		{250, recordHeaderSize + 252},
		{256, recordHeaderSize + 256},
	}
	for _, c := range cases {
		if got := recordSize(c.payload); got != c.want {
			t.Errorf("recordSize(%d) = %d, want %d", c.payload, got, c.want)
		}
	}
}

func TestAlignedWord(t *testing.T) {
	for _, n := range []int64{0, 4, 8, 4096} {
		if !alignedWord(n) {
			t.Errorf("alignedWord(%d) = false, want true", n)
		}
	}
	for _, n := range []int64{1, 2, 3, 5, 4097} {
		if alignedWord(n) {
			t.Errorf("alignedWord(%d) = true, want false", n)
		}
	}
}
