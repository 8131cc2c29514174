package platform

import (
	"context"
	"os"
)

// FileFlash backs two simulated flash regions with a single file on a
// development host, one region after another. It exists so flashkv
// can be exercised (and its image inspected) without real hardware.
//
// Write and Erase take an exclusive flock for their duration; Read
// takes a shared flock. This does not implement
// the multi-writer transactions the distilled spec explicitly puts
// out of scope — it only prevents two independent host processes from
// tearing each other's writes to the same backing file, the
// cross-process analogue of the single in-process writer the core
// already assumes.
type FileFlash struct {
	f    *os.File
	lock fileLock
	size int
}

// OpenFileFlash opens (creating if necessary) a file of 2*size bytes
// to back two flash regions of size bytes each. A freshly created
// file is initialized to all-ones, matching an erased device.
func OpenFileFlash(path string, size int) (*FileFlash, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	ff := &FileFlash{f: f, size: size}
	ff.lock.f = f

	if info.Size() != int64(2*size) {
		ones := make([]byte, 2*size)
		fillOnes(ones)
		if _, err := f.WriteAt(ones, 0); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Truncate(int64(2 * size)); err != nil {
			f.Close()
			return nil, err
		}
	}

	return ff, nil
}

func (ff *FileFlash) Close() error {
	ff.lock.mu.Lock()
	defer ff.lock.mu.Unlock()
	ff.lock.f = nil
	return ff.f.Close()
}

func (ff *FileFlash) regionOffset(region int) int64 {
	return int64(region) * int64(ff.size)
}

func (ff *FileFlash) Init(ctx context.Context) error { return nil }

func (ff *FileFlash) SwapSize(ctx context.Context) (int, error) {
	return ff.size, nil
}

func (ff *FileFlash) Erase(ctx context.Context, region int) error {
	if err := ff.lock.Lock(lockExclusive); err != nil {
		return err
	}
	defer ff.lock.Unlock()

	ones := make([]byte, ff.size)
	fillOnes(ones)
	_, err := ff.f.WriteAt(ones, ff.regionOffset(region))
	return err
}

func (ff *FileFlash) Read(ctx context.Context, region int, offset int64, buf []byte) error {
	if err := ff.lock.Lock(lockShared); err != nil {
		return err
	}
	defer ff.lock.Unlock()

	_, err := ff.f.ReadAt(buf, ff.regionOffset(region)+offset)
	return err
}

// Write clears bits in place via read-modify-write, since os files do
// not expose a native "AND into place" primitive the way a flash
// controller would.
func (ff *FileFlash) Write(ctx context.Context, region int, offset int64, buf []byte) error {
	if err := ff.lock.Lock(lockExclusive); err != nil {
		return err
	}
	defer ff.lock.Unlock()

	cur := make([]byte, len(buf))
	abs := ff.regionOffset(region) + offset
	if _, err := ff.f.ReadAt(cur, abs); err != nil {
		return err
	}
	for i, b := range buf {
		cur[i] &= b
	}
	_, err := ff.f.WriteAt(cur, abs)
	return err
}
