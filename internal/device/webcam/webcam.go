//go:build linux && cgo

// Package webcam drives V4L2 cameras (USB webcams, Pi cameras) through the
// go4vl bindings. The device streams MJPEG continuously while open; still
// and preview captures both take the next frame off the stream. Exposure
// enumeration is a PTP concept, so the exposure operations report
// ErrNotSupported.
package webcam

import (
	"bytes"
	"context"
	"fmt"

	v4ldevice "github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"

	"github.com/tholee-studio/camera-service/internal/device"
)

// Driver opens V4L2 devices by path.
type Driver struct {
	path   string
	width  uint32
	height uint32
	fps    uint32
}

// New creates a Driver for the given device path, for example "/dev/video0".
func New(path string, width, height, fps int) *Driver {
	return &Driver{
		path:   path,
		width:  uint32(width),
		height: uint32(height),
		fps:    uint32(fps),
	}
}

// Open opens the V4L2 device and starts the MJPEG stream.
func (d *Driver) Open(ctx context.Context) (device.Conn, error) {
	dev, err := v4ldevice.Open(d.path,
		v4ldevice.WithIOType(v4l2.IOTypeMMAP),
		v4ldevice.WithPixFormat(v4l2.PixFormat{
			PixelFormat: v4l2.PixelFmtMJPEG,
			Width:       d.width,
			Height:      d.height,
			Field:       v4l2.FieldNone,
		}),
		v4ldevice.WithFPS(d.fps),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %v", d.path, device.ErrNotDetected, err)
	}

	// The stream must outlive the opening request, so it runs under a
	// connection-owned context cancelled by Close.
	streamCtx, cancel := context.WithCancel(context.Background())
	if err := dev.Start(streamCtx); err != nil {
		cancel()
		dev.Close()
		return nil, fmt.Errorf("failed to start stream on %s: %w", d.path, err)
	}

	return &conn{dev: dev, cancel: cancel}, nil
}

type conn struct {
	dev    *v4ldevice.Device
	cancel context.CancelFunc
}

// nextFrame takes one frame off the device stream. Frames are copied out of
// the driver's mmap buffers before they are reused.
func (c *conn) nextFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-c.dev.GetOutput():
		if !ok {
			return nil, fmt.Errorf("device stream closed")
		}
		if len(frame) == 0 {
			return nil, fmt.Errorf("device produced empty frame")
		}
		return bytes.Clone(frame), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *conn) CaptureStill(ctx context.Context) ([]byte, error) {
	return c.nextFrame(ctx)
}

func (c *conn) CapturePreview(ctx context.Context) ([]byte, error) {
	return c.nextFrame(ctx)
}

func (c *conn) GetConfig(_ context.Context, key string) (string, error) {
	return "", fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
}

func (c *conn) SetConfig(_ context.Context, key, _ string) error {
	return fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
}

func (c *conn) ListChoices(_ context.Context, key string) ([]string, error) {
	return nil, fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
}

func (c *conn) Close() error {
	c.cancel()
	if err := c.dev.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}
