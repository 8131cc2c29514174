// Package flashkv implements a log-structured key-value store over a
// raw two-region flash device. See SPEC_FULL.md for the full contract.
package flashkv

import "errors"

// Sentinel errors returned by Store operations.
var (
	// ErrNotFound is returned when Get or Delete cannot find a
	// matching record.
	ErrNotFound = errors.New("flashkv: not found")

	// ErrNoSpace is returned when Add cannot fit a new record even
	// after a compacting swap.
	ErrNoSpace = errors.New("flashkv: no space")

	// ErrClosed names the error for operating on a closed Store.
	// Store.Close leaves the Store usable, and no Store method
	// returns ErrClosed.
	ErrClosed = errors.New("flashkv: store closed")

	// ErrPayloadTooLarge is returned when Add/Set is called with a
	// value longer than MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("flashkv: payload exceeds maximum size")

	// ErrNoActiveRegion is returned by Open, wrapping the platform
	// error, when neither region's swap header reads as ACTIVE and
	// the resulting Wipe fails against the platform.
	ErrNoActiveRegion = errors.New("flashkv: no active swap region")
)
