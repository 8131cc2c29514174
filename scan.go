package flashkv

import (
	"context"
	"fmt"
)

// readHeader reads the record header at offset in region.
func (s *Store) readHeader(ctx context.Context, region int, offset int64) (recordHeader, error) {
	buf := make([]byte, recordHeaderSize)
	if err := s.flash.Read(ctx, region, offset, buf); err != nil {
		return recordHeader{}, fmt.Errorf("flashkv: read header at %d: %w", offset, err)
	}
	return decodeRecordHeader(buf), nil
}

// readPayload reads a record's payload given its header and offset.
func (s *Store) readPayload(ctx context.Context, region int, offset int64, hdr recordHeader) ([]byte, error) {
	buf := make([]byte, hdr.length)
	if err := s.flash.Read(ctx, region, offset+recordHeaderSize, buf); err != nil {
		return nil, fmt.Errorf("flashkv: read payload at %d: %w", offset, err)
	}
	return buf, nil
}

// writeHeader rewrites the header word(s) at offset in place. Used
// only for single-bit-clear transitions (commit, tombstone, promote).
func (s *Store) writeHeader(ctx context.Context, region int, offset int64, hdr recordHeader) error {
	if err := s.flash.Write(ctx, region, offset, hdr.encode()); err != nil {
		return fmt.Errorf("flashkv: write header at %d: %w", offset, err)
	}
	return nil
}

// recordVisitor is called for each record found while scanning
// [start, end) of a region. offsetAfter is the offset one past the
// record (its RecordSize already added). Returning false stops the scan.
type recordVisitor func(offset, offsetAfter int64, hdr recordHeader) (keepGoing bool)

// forEachRecord scans region from start to end, decoding each record's
// header and invoking visit. It stops early if a record is not fully
// committed, since nothing meaningful follows it.
func (s *Store) forEachRecord(ctx context.Context, region int, start, end int64, visit recordVisitor) error {
	offset := start
	for offset+recordHeaderSize <= end {
		hdr, err := s.readHeader(ctx, region, offset)
		if err != nil {
			return err
		}
		if !hdr.committed() {
			break
		}
		offsetAfter := offset + int64(recordSize(int(hdr.length)))
		if !visit(offset, offsetAfter, hdr) {
			return nil
		}
		offset = offsetAfter
	}
	return nil
}
