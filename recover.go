package flashkv

import (
	"context"
	"fmt"
)

// committed reports whether a record's header write and its commit
// write (clearing AddComplete) have both landed. Until both have
// happened the record's length field cannot be trusted, since the
// second write is what marks the first as having fully completed.
func (h recordHeader) committed() bool {
	return h.addBegin() && h.addComplete()
}

// scanFrontier implements step 5 of §4.1: walk records from
// swapHeaderSize forward, stopping at the first one that is not fully
// committed. That offset is the write frontier.
func (s *Store) scanFrontier(ctx context.Context, region int) (int64, error) {
	offset := int64(swapHeaderSize)
	limit := int64(s.swapSize) - recordHeaderSize

	for offset <= limit {
		hdrBuf := make([]byte, recordHeaderSize)
		if err := s.flash.Read(ctx, region, offset, hdrBuf); err != nil {
			return 0, fmt.Errorf("flashkv: scan: read header at %d: %w", offset, err)
		}
		hdr := decodeRecordHeader(hdrBuf)
		if !hdr.committed() {
			break
		}
		offset += int64(recordSize(int(hdr.length)))
	}
	return offset, nil
}

// sanitizeFreeSpace implements §4.1's SanitizeFreeSpace: verify the
// frontier is word-aligned and that every word past it reads as
// all-ones. Either violation means a torn write was left in place by
// power loss, and must be compacted away rather than written over
// (which would clear further bits into it and corrupt the record
// underneath).
func (s *Store) sanitizeFreeSpace(ctx context.Context) error {
	if !alignedWord(s.swapUsed) || !s.freeSpaceErased(ctx) {
		s.log.Debug().Msg("flashkv: free space not clean, compacting")
		return s.swap(ctx)
	}
	return nil
}

func (s *Store) freeSpaceErased(ctx context.Context) bool {
	const chunk = 256
	buf := make([]byte, chunk)
	for off := s.swapUsed; off < int64(s.swapSize); {
		n := chunk
		if remaining := int64(s.swapSize) - off; remaining < int64(n) {
			n = int(remaining)
		}
		if err := s.flash.Read(ctx, s.swapIdx, off, buf[:n]); err != nil {
			return false
		}
		for _, b := range buf[:n] {
			if b != 0xFF {
				return false
			}
		}
		off += int64(n)
	}
	return true
}
