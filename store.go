package flashkv

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/flashkv/flashkv/platform"
)

// KeyHashAlgorithm selects the algorithm the optional keyhash helper
// package uses. It has no effect on Store itself; it is only threaded
// through Config so callers can keep one configuration value for both.
type KeyHashAlgorithm int

const (
	// AlgXXHash3 is the default: fastest, good distribution.
	AlgXXHash3 KeyHashAlgorithm = iota
	// AlgFNV1a avoids pulling in an external dependency.
	AlgFNV1a
	// AlgBlake2b gives the best distribution at extra cost.
	AlgBlake2b
)

// Config holds Store configuration.
type Config struct {
	// SyncWrites documents that the platform is expected to make
	// writes durable before Flash.Write/Flash.Erase return. The platform
	// contract already requires this; the flag exists so callers can
	// assert it rather than silently assume it.
	SyncWrites bool

	// KeyHashAlgorithm is forwarded to flashkv/keyhash by callers that
	// use it to derive Store keys from names; Store itself ignores it.
	KeyHashAlgorithm KeyHashAlgorithm

	// DisableAccelerator turns off the in-memory bloom-filter
	// short-circuit for Get/Delete, forcing a pure linear scan every
	// time. Useful for testing the literal scan algorithm.
	DisableAccelerator bool

	// Logger receives structured events around recovery, swap, and
	// wipe. The zero value is zerolog.Nop() — no output.
	Logger zerolog.Logger
}

// Store is a log-structured key-value store over two flash regions.
// All exported methods run to completion synchronously; see SPEC_FULL.md
// §5 for the concurrency model. A Store is not safe for concurrent use
// from multiple goroutines — callers must serialize externally.
type Store struct {
	flash  platform.Flash
	config Config
	log    zerolog.Logger

	mu sync.Mutex

	swapSize int
	swapIdx  int
	swapUsed int64

	accel *accelerator
}

// Open initializes a Store against the given Flash, running recovery
// as described in SPEC_FULL.md §4.1.
func Open(ctx context.Context, flash platform.Flash, config Config) (*Store, error) {
	s := &Store{
		flash:  flash,
		config: config,
		log:    config.Logger,
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// init implements §4.1: locate the active region, scan it to find the
// write frontier, then sanitize the free space it leaves behind.
func (s *Store) init(ctx context.Context) error {
	if err := s.flash.Init(ctx); err != nil {
		return fmt.Errorf("flashkv: platform init: %w", err)
	}

	size, err := s.flash.SwapSize(ctx)
	if err != nil {
		return fmt.Errorf("flashkv: platform swap size: %w", err)
	}
	s.swapSize = size

	if !s.config.DisableAccelerator {
		s.accel = newAccelerator()
	}

	active, found, err := s.findActiveRegion(ctx)
	if err != nil {
		return err
	}
	if !found {
		s.log.Info().Msg("flashkv: no active region found, wiping")
		if err := s.wipeLocked(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNoActiveRegion, err)
		}
		return nil
	}
	s.swapIdx = active

	used, err := s.scanFrontier(ctx, active)
	if err != nil {
		return err
	}
	s.swapUsed = used

	if err := s.sanitizeFreeSpace(ctx); err != nil {
		return err
	}

	if s.accel != nil {
		if err := s.rebuildAccelerator(ctx); err != nil {
			return err
		}
	}

	s.log.Debug().
		Int("region", s.swapIdx).
		Int64("used", s.swapUsed).
		Msg("flashkv: recovered")
	return nil
}

// findActiveRegion reads both swap headers, preferring region 0, as
// required by invariant 1 and the crash-safety argument in §4.5.
func (s *Store) findActiveRegion(ctx context.Context) (region int, found bool, err error) {
	for r := 0; r < 2; r++ {
		marker, err := s.readMarker(ctx, r)
		if err != nil {
			return 0, false, err
		}
		if marker == swapMarkerActive {
			return r, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) readMarker(ctx context.Context, region int) (uint32, error) {
	buf := make([]byte, swapHeaderSize)
	if err := s.flash.Read(ctx, region, 0, buf); err != nil {
		return 0, fmt.Errorf("flashkv: read swap header: %w", err)
	}
	return decodeMarker(buf), nil
}

func (s *Store) writeMarker(ctx context.Context, region int, marker uint32) error {
	return s.flash.Write(ctx, region, 0, encodeMarker(marker))
}

// Close releases no platform resources of its own; the platform.Flash
// the Store was opened with remains the caller's to close.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// GetEraseCounter returns a saturating count of region-0 erases, for
// diagnostics only. Not state-bearing: recovery never reads it.
func (s *Store) GetEraseCounter() uint16 {
	type eraseCounter interface {
		EraseCount(region int) uint16
	}
	if ec, ok := s.flash.(eraseCounter); ok {
		return ec.EraseCount(0)
	}
	return 0
}

// Wipe resets the entire store: region 0 is erased and given a fresh
// ACTIVE header, region 1 is left untouched until the next Swap.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wipeLocked(ctx)
}

func (s *Store) wipeLocked(ctx context.Context) error {
	if err := s.flash.Erase(ctx, 0); err != nil {
		return fmt.Errorf("flashkv: erase: %w", err)
	}
	if err := s.writeMarker(ctx, 0, swapMarkerActive); err != nil {
		return fmt.Errorf("flashkv: write active marker: %w", err)
	}
	s.swapIdx = 0
	s.swapUsed = swapHeaderSize
	if s.accel != nil {
		s.accel.reset()
	}
	s.log.Info().Msg("flashkv: wiped")
	return nil
}

func decodeMarker(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func encodeMarker(m uint32) []byte {
	return []byte{byte(m), byte(m >> 8), byte(m >> 16), byte(m >> 24)}
}
