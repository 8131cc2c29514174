// Package snapshot exports and restores a flashkv.Store's logical
// contents to a portable file, independent of the on-flash format.
//
// This is a supplemental feature (SPEC_FULL.md §11.4/§12.3): the
// distilled spec's Non-goals exclude wear-leveling, encryption,
// multi-region scaling, multi-writer access, transactional grouping,
// and dynamic record sizes, but say nothing about backup/restore,
// which any real embedded deployment needs for provisioning and field
// recovery.
//
// Grounded on the retrieval pack's document-store teacher's
// compress.go: a package-level zstd encoder/decoder pair compresses a
// goccy/go-json-encoded entry list. The snapshot file is never mixed
// with the bit-exact on-flash layout — it only ever goes through
// Store.Dump/Add, never raw region bytes.
package snapshot

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/flashkv/flashkv"
)

// Shared encoder/decoder, built once: zstd encoder/decoder
// construction is expensive enough that per-call allocation would
// dominate the cost of snapshotting a small store.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// entry mirrors flashkv.Entry with JSON tags; kept private so the
// wire format of the snapshot file is decoupled from flashkv.Entry's
// Go field names.
type entry struct {
	Key   uint16 `json:"k"`
	Index int    `json:"i"`
	Value []byte `json:"v"`
}

// Export serializes every live record in store to a zstd-compressed,
// JSON-encoded snapshot.
func Export(ctx context.Context, store *flashkv.Store) ([]byte, error) {
	dumped, err := store.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: dump: %w", err)
	}

	entries := make([]entry, len(dumped))
	for i, d := range dumped {
		entries[i] = entry{Key: d.Key, Index: d.Index, Value: d.Value}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}

	return zstdEncoder.EncodeAll(data, nil), nil
}

// Restore replays a snapshot produced by Export into store, which
// should be freshly wiped: entries are grouped by key, keys in the
// order they first appear in the snapshot, and each key's entries are
// appended in snapshot order using store.Add, so the chain each key's
// Add calls build matches what Dump originally observed.
func Restore(ctx context.Context, store *flashkv.Store, snap []byte) error {
	data, err := zstdDecoder.DecodeAll(snap, nil)
	if err != nil {
		return fmt.Errorf("snapshot: decompress: %w", err)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("snapshot: unmarshal: %w", err)
	}

	byKey := make(map[uint16][]entry)
	var order []uint16
	for _, e := range entries {
		if _, ok := byKey[e.Key]; !ok {
			order = append(order, e.Key)
		}
		byKey[e.Key] = append(byKey[e.Key], e)
	}

	for _, key := range order {
		group := byKey[key]
		for _, e := range group {
			if err := store.Add(ctx, key, e.Value); err != nil {
				return fmt.Errorf("snapshot: restore key %d index %d: %w", key, e.Index, err)
			}
		}
	}
	return nil
}
