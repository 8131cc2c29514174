package flashkv

import (
	"context"
	"fmt"
)

// swap implements §4.5: compact all live, non-shadowed records from
// the active region into the alternate region, then flip which region
// is active. Crash safety relies on the ordering of steps 4 and 5: the
// new region is marked ACTIVE before the old one is marked INACTIVE,
// so there is never a window where neither region is active. Recovery
// (findActiveRegion) prefers region 0, which tolerates the brief
// window where both read ACTIVE.
func (s *Store) swap(ctx context.Context) error {
	src := s.swapIdx
	dst := 1 - src
	dstOffset := int64(swapHeaderSize)

	s.log.Info().Int("from", src).Int("to", dst).Msg("flashkv: swap")

	if err := s.flash.Erase(ctx, dst); err != nil {
		return fmt.Errorf("flashkv: swap: erase region %d: %w", dst, err)
	}

	offset := int64(swapHeaderSize)
	for offset+recordHeaderSize <= s.swapUsed {
		hdr, err := s.readHeader(ctx, src, offset)
		if err != nil {
			return err
		}
		if !hdr.addBegin() {
			// Trailing torn write: nothing meaningful follows.
			break
		}

		offsetAfter := offset + int64(recordSize(int(hdr.length)))

		if hdr.valid() {
			shadowed, err := s.doesValidRecordExist(ctx, offsetAfter, hdr.key)
			if err != nil {
				return err
			}
			if !shadowed {
				payload, err := s.readPayload(ctx, src, offset, hdr)
				if err != nil {
					return err
				}
				buf := make([]byte, recordSize(int(hdr.length)))
				copy(buf, hdr.encode())
				copy(buf[recordHeaderSize:], payload)
				if err := s.flash.Write(ctx, dst, dstOffset, buf); err != nil {
					return fmt.Errorf("flashkv: swap: copy record: %w", err)
				}
				dstOffset += int64(len(buf))
			}
		}
		// Tombstoned or never-committed records are dropped silently.

		offset = offsetAfter
	}

	if err := s.writeMarker(ctx, dst, swapMarkerActive); err != nil {
		return fmt.Errorf("flashkv: swap: write active marker: %w", err)
	}
	if err := s.writeMarker(ctx, src, swapMarkerInactive); err != nil {
		return fmt.Errorf("flashkv: swap: write inactive marker: %w", err)
	}

	s.swapIdx = dst
	s.swapUsed = dstOffset

	if s.accel != nil {
		s.accel.reset()
		if err := s.rebuildAccelerator(ctx); err != nil {
			return err
		}
	}

	return nil
}

// doesValidRecordExist is the shadowing predicate from §4.5: does a
// later valid record with the given key and First cleared exist in
// [offset, swapUsed) of the active (pre-swap) region? If so, the
// record being considered at an earlier offset has been superseded by
// a Set and should be dropped during compaction.
func (s *Store) doesValidRecordExist(ctx context.Context, offset int64, key uint16) (bool, error) {
	exists := false
	err := s.forEachRecord(ctx, s.swapIdx, offset, s.swapUsed, func(_, _ int64, hdr recordHeader) bool {
		if hdr.valid() && hdr.key == key && hdr.first() {
			exists = true
			return false
		}
		return true
	})
	return exists, err
}
