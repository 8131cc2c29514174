package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/flashkv/flashkv"
	"github.com/flashkv/flashkv/platform"
)

func newTestStore(t *testing.T) *flashkv.Store {
	t.Helper()
	flash := platform.NewMemFlash(4096)
	store, err := flashkv.Open(context.Background(), flash, flashkv.Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	if err := src.Add(ctx, 1, []byte("a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := src.Add(ctx, 1, []byte("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := src.Set(ctx, 2, []byte("only")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := newTestStore(t)
	if err := Restore(ctx, dst, data); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got0, err := dst.Get(ctx, 1, 0)
	if err != nil || !bytes.Equal(got0, []byte("a")) {
		t.Errorf("Get(1,0) = %v, %v, want \"a\", nil", got0, err)
	}
	got1, err := dst.Get(ctx, 1, 1)
	if err != nil || !bytes.Equal(got1, []byte("b")) {
		t.Errorf("Get(1,1) = %v, %v, want \"b\", nil", got1, err)
	}
	got2, err := dst.Get(ctx, 2, 0)
	if err != nil || !bytes.Equal(got2, []byte("only")) {
		t.Errorf("Get(2,0) = %v, %v, want \"only\", nil", got2, err)
	}
}

func TestExportEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	data, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := newTestStore(t)
	if err := Restore(ctx, dst, data); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := dst.Get(ctx, 1, 0); err != flashkv.ErrNotFound {
		t.Errorf("Get after restoring empty snapshot = %v, want ErrNotFound", err)
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	dst := newTestStore(t)

	if err := Restore(ctx, dst, []byte("not a snapshot")); err == nil {
		t.Error("Restore on garbage input should return an error")
	}
}
