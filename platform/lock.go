// OS-level file locking for FileFlash, guarding a simulated flash
// image against concurrent host processes.
//
// fileLock wraps flock(2) / LockFileEx with a mutex that guards the
// file handle's lifetime, so a concurrent Close cannot race the lock
// syscall on the same *os.File. Grounded on the equivalent pattern in
// the retrieval pack's document-store teacher, which uses the same
// shape to coordinate readers and writers across processes.
package platform

import (
	"os"
	"sync"
)

type lockMode int

const (
	lockShared lockMode = iota
	lockExclusive
)

type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

func (l *fileLock) Lock(mode lockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock(mode)
}

func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}
