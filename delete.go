package flashkv

import "context"

// Delete tombstones the index-th valid record under key, or every
// valid record under key when index is -1. It returns ErrNotFound if
// nothing matched.
//
// See SPEC_FULL.md §4.4 and §9 for the acknowledged power-loss hazard
// between tombstoning index 0 and promoting index 1 to First: if power
// is lost in that window, the surviving chain has no First marker, but
// every reader already starts its local index at 0, so the chain is
// still read correctly — just without the (purely internal) head
// marker restored. This implementation intentionally reproduces that
// behavior rather than trying to make the two writes atomic, which is
// not possible on raw flash.
func (s *Store) Delete(ctx context.Context, key uint16, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accel != nil && !s.accel.contains(key) {
		return ErrNotFound
	}

	var (
		deletedAny bool
		counter    int
	)

	err := s.forEachRecord(ctx, s.swapIdx, swapHeaderSize, s.swapUsed, func(offset, _ int64, hdr recordHeader) bool {
		if !hdr.valid() || hdr.key != key {
			return true
		}
		if hdr.first() {
			counter = 0
		}

		c := counter
		if index == -1 || c == index {
			hdr.flags &^= flagDelete
			if err := s.writeHeader(ctx, s.swapIdx, offset, hdr); err == nil {
				deletedAny = true
			}
		}
		if index == 0 && c == 1 {
			hdr.flags &^= flagFirst
			s.writeHeader(ctx, s.swapIdx, offset, hdr)
		}

		counter++
		return true
	})
	if err != nil {
		return err
	}
	if !deletedAny {
		return ErrNotFound
	}
	return nil
}
