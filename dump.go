package flashkv

import "context"

// Entry is one logical (key, index, value) triple as seen by a full
// scan of the active region: index counts up within each key's chain,
// resetting at every record marked First, exactly as Get does.
type Entry struct {
	Key   uint16
	Index int
	Value []byte
}

// Dump returns every live, non-shadowed record in the active region
// as a flat list, in on-flash order. It is the enumeration primitive
// flashkv/snapshot builds export/restore on top of; it is not part of
// the distilled spec's API (see SPEC_FULL.md §12.3).
func (s *Store) Dump(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := make(map[uint16]int)
	var entries []Entry
	var scanErr error

	err := s.forEachRecord(ctx, s.swapIdx, swapHeaderSize, s.swapUsed, func(offset, offsetAfter int64, hdr recordHeader) bool {
		if !hdr.valid() {
			return true
		}
		if hdr.first() {
			counters[hdr.key] = 0
		}
		idx := counters[hdr.key]
		counters[hdr.key] = idx + 1

		shadowed, err := s.doesValidRecordExist(ctx, offsetAfter, hdr.key)
		if err != nil {
			scanErr = err
			return false
		}
		if shadowed {
			return true
		}

		value, err := s.readPayload(ctx, s.swapIdx, offset, hdr)
		if err != nil {
			scanErr = err
			return false
		}
		entries = append(entries, Entry{Key: hdr.key, Index: idx, Value: value})
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return entries, nil
}
