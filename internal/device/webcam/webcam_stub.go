//go:build !linux || !cgo

// V4L2 only exists on Linux. The stub keeps the package buildable
// everywhere so driver selection stays platform-independent.
package webcam

import (
	"context"
	"fmt"
	"runtime"

	"github.com/tholee-studio/camera-service/internal/device"
)

// Driver is a placeholder on platforms without V4L2.
type Driver struct {
	path string
}

// New creates a Driver whose Open always fails on this platform.
func New(path string, _, _, _ int) *Driver {
	return &Driver{path: path}
}

// Open reports that V4L2 capture is unavailable.
func (d *Driver) Open(_ context.Context) (device.Conn, error) {
	return nil, fmt.Errorf("webcam capture requires linux, running on %s: %w", runtime.GOOS, device.ErrNotSupported)
}
