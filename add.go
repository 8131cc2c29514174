package flashkv

import "context"

// Set stores value under key as the new head of its chain: a
// subsequent Get(key, 0) returns value. Older records under key are
// not rewritten; they are shadowed (see SPEC_FULL.md §4.3) and dropped
// by the next compacting Swap.
func (s *Store) Set(ctx context.Context, key uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addRecord(ctx, key, true, value)
}

// Add appends value under key. If key has no live record (Get(key, 0)
// finds nothing), the new record is marked First (so Get/Delete index
// counting starts from it); otherwise it is appended after the
// existing chain.
func (s *Store) Add(ctx context.Context, key uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.getLocked(ctx, key, 0)
	first := err == ErrNotFound
	if err != nil && err != ErrNotFound {
		return err
	}
	return s.addRecord(ctx, key, first, value)
}

// addRecord implements §4.3: construct the header, ensure space
// (compacting first if needed), write header+payload, then commit
// with a second, header-only write that clears AddComplete.
func (s *Store) addRecord(ctx context.Context, key uint16, first bool, value []byte) error {
	if len(value) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}

	size := recordSize(len(value))
	if s.swapUsed+int64(size) > int64(s.swapSize) {
		if err := s.swap(ctx); err != nil {
			return err
		}
		if s.swapUsed+int64(size) > int64(s.swapSize) {
			return ErrNoSpace
		}
	}

	flags := allFlagsUnset &^ flagAddBegin
	if first {
		flags &^= flagFirst
	}
	hdr := recordHeader{key: key, flags: flags, length: uint16(len(value)), reserved: recordReserved}

	offset := s.swapUsed
	buf := make([]byte, size)
	copy(buf, hdr.encode())
	copy(buf[recordHeaderSize:], value)
	if err := s.flash.Write(ctx, s.swapIdx, offset, buf); err != nil {
		return err
	}

	hdr.flags &^= flagAddComplete
	if err := s.writeHeader(ctx, s.swapIdx, offset, hdr); err != nil {
		return err
	}

	s.swapUsed += int64(size)
	if s.accel != nil {
		s.accel.add(key)
	}
	return nil
}
