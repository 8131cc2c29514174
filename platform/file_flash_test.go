package platform

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func TestOpenFileFlashFreshFileIsAllOnes(t *testing.T) {
	dir := t.TempDir()
	ff, err := OpenFileFlash(filepath.Join(dir, "img.bin"), 64)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	defer ff.Close()

	buf := make([]byte, 64)
	for region := 0; region < 2; region++ {
		if err := ff.Read(context.Background(), region, 0, buf); err != nil {
			t.Fatalf("Read region %d: %v", region, err)
		}
		for i, b := range buf {
			if b != 0xFF {
				t.Fatalf("region %d byte %d = %#x, want 0xFF", region, i, b)
			}
		}
	}
}

func TestFileFlashWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ff, err := OpenFileFlash(filepath.Join(dir, "img.bin"), 64)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	defer ff.Close()

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	if err := ff.Write(ctx, 1, 8, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 4)
	if err := ff.Read(ctx, 1, 8, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("Read = %v, want %v", buf, payload)
	}
}

func TestFileFlashPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "img.bin")

	ff, err := OpenFileFlash(path, 32)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	if err := ff.Write(ctx, 0, 0, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ff.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileFlash(path, 32)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	buf := make([]byte, 2)
	if err := reopened.Read(ctx, 0, 0, buf); err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xAA, 0xBB}) {
		t.Errorf("Read after reopen = %v, want [0xAA 0xBB]", buf)
	}
}

func TestFileFlashRegionsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ff, err := OpenFileFlash(filepath.Join(dir, "img.bin"), 16)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	defer ff.Close()

	if err := ff.Write(ctx, 0, 0, []byte{0x00, 0x00, 0x00, 0x00}); err != nil {
		t.Fatalf("Write region 0: %v", err)
	}

	buf := make([]byte, 4)
	if err := ff.Read(ctx, 1, 0, buf); err != nil {
		t.Fatalf("Read region 1: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("region 1 = %v, want all-ones", buf)
	}
}

func TestFileFlashEraseResetsRegion(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ff, err := OpenFileFlash(filepath.Join(dir, "img.bin"), 16)
	if err != nil {
		t.Fatalf("OpenFileFlash: %v", err)
	}
	defer ff.Close()

	if err := ff.Write(ctx, 0, 0, []byte{0x00}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ff.Erase(ctx, 0); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	buf := make([]byte, 1)
	if err := ff.Read(ctx, 0, 0, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf[0] != 0xFF {
		t.Errorf("byte after erase = %#x, want 0xFF", buf[0])
	}
}
