package flashkv

import "context"

// Get returns the index-th valid, non-shadowed record stored under
// key. index is reset to 0 every time a record marked First is
// encountered during the scan — see SPEC_FULL.md §4.2 for why this
// lets chains of Set address the newest value as index 0.
//
// Unlike the distilled spec's out-buffer/max-length C calling
// convention, Get returns a freshly allocated copy of the value; Go
// callers have no use for a caller-supplied buffer with a reported
// full length the way an embedded C API does. See DESIGN.md.
func (s *Store) Get(ctx context.Context, key uint16, index int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, key, index)
}

// getLocked is Get's body, callable by other operations that already
// hold s.mu (Add's "does this key exist yet" probe).
func (s *Store) getLocked(ctx context.Context, key uint16, index int) ([]byte, error) {
	if s.accel != nil && !s.accel.contains(key) {
		return nil, ErrNotFound
	}

	var (
		hit       bool
		hitOffset int64
		hitHeader recordHeader
		counter   int
	)

	err := s.forEachRecord(ctx, s.swapIdx, swapHeaderSize, s.swapUsed, func(offset, _ int64, hdr recordHeader) bool {
		if !hdr.valid() || hdr.key != key {
			return true
		}
		if hdr.first() {
			// A new chain starts here: any hit from an earlier chain is
			// shadowed by it.
			counter = 0
			hit = false
		}
		if counter == index {
			hit = true
			hitOffset = offset
			hitHeader = hdr
		}
		counter++
		return true
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, ErrNotFound
	}

	return s.readPayload(ctx, s.swapIdx, hitOffset, hitHeader)
}
