// Package device defines the capability boundary to the imaging hardware.
// Everything above it (the session, the stream loop, the HTTP handlers)
// talks to cameras only through the Driver and Conn interfaces, which keeps
// the hardware binding swappable and the coordination layer testable.
package device

import (
	"context"
	"errors"
)

// Exposure parameter keys, as named by the camera protocol.
const (
	KeyISO          = "iso"
	KeyShutterSpeed = "shutterspeed"
	KeyAperture     = "aperture"
)

var (
	// ErrNotDetected is returned by Open when no camera is connected.
	ErrNotDetected = errors.New("no camera detected")

	// ErrInvalidValue is returned by SetConfig when the device rejects the
	// value. It signals a caller mistake, not a device failure: the
	// connection is still healthy and must not be torn down.
	ErrInvalidValue = errors.New("value not accepted by device")

	// ErrNotSupported is returned by backends that lack a capability, such
	// as exposure enumeration on plain webcams.
	ErrNotSupported = errors.New("operation not supported by device")
)

// Driver opens connections to a camera. Implementations may probe buses,
// spawn helper processes or fabricate frames; a failed Open requires no
// cleanup and the next Open starts fresh.
type Driver interface {
	Open(ctx context.Context) (Conn, error)
}

// Conn is an open connection to a camera. Implementations are NOT assumed
// safe for concurrent use; the session layer serializes every call. Any
// method failing with an error other than ErrInvalidValue leaves the
// connection in unknown state; the caller must Close and discard it.
type Conn interface {
	// CaptureStill acquires one full-resolution image: capture to device
	// storage, fetch into memory and delete from device storage as a
	// single unit of work.
	CaptureStill(ctx context.Context) ([]byte, error)

	// CapturePreview acquires one low-resolution liveview frame (JPEG).
	CapturePreview(ctx context.Context) ([]byte, error)

	// GetConfig reads the current value of an exposure parameter.
	GetConfig(ctx context.Context, key string) (string, error)

	// SetConfig writes an exposure parameter. The device is the source of
	// truth for accepted values; rejected values yield ErrInvalidValue.
	SetConfig(ctx context.Context, key, value string) error

	// ListChoices enumerates the values the device accepts for a parameter.
	ListChoices(ctx context.Context, key string) ([]string, error)

	// Close releases the camera. Best-effort; the connection is unusable
	// afterwards regardless of the returned error.
	Close() error
}
