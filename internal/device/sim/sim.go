// Package sim implements an in-process camera for development and demos on
// machines without imaging hardware. Frames are synthesized on the fly, so
// the package ships no image assets, and exposure settings behave like a
// real PTP camera including value validation.
package sim

import (
	"context"
	"fmt"
	"slices"

	"github.com/tholee-studio/camera-service/internal/device"
)

const (
	previewWidth  = 640
	previewHeight = 480
	stillWidth    = 1620
	stillHeight   = 1080
)

var choiceLists = map[string][]string{
	device.KeyISO:          {"Auto", "100", "200", "400", "800", "1600", "3200", "6400"},
	device.KeyShutterSpeed: {"1/4000", "1/2000", "1/1000", "1/500", "1/250", "1/125", "1/60", "1/30", "1/15", "1/8", "1/4", "1/2", "1"},
	device.KeyAperture:     {"1.8", "2.8", "4", "5.6", "8", "11", "16", "22"},
}

var defaults = map[string]string{
	device.KeyISO:          "400",
	device.KeyShutterSpeed: "1/125",
	device.KeyAperture:     "5.6",
}

// Driver fabricates camera connections that always succeed.
type Driver struct{}

// New creates a simulated camera driver.
func New() *Driver {
	return &Driver{}
}

// Open returns a fresh simulated connection with default exposure settings.
func (d *Driver) Open(_ context.Context) (device.Conn, error) {
	settings := make(map[string]string, len(defaults))
	for k, v := range defaults {
		settings[k] = v
	}
	return &conn{settings: settings}, nil
}

// conn is a simulated camera. Like real backends it is not safe for
// concurrent use and relies on the session layer for serialization.
type conn struct {
	settings map[string]string
	frame    int
	closed   bool
}

func (c *conn) CaptureStill(_ context.Context) ([]byte, error) {
	if c.closed {
		return nil, fmt.Errorf("connection closed")
	}
	c.frame++
	return renderFrame(stillWidth, stillHeight, c.frame)
}

func (c *conn) CapturePreview(_ context.Context) ([]byte, error) {
	if c.closed {
		return nil, fmt.Errorf("connection closed")
	}
	c.frame++
	return renderFrame(previewWidth, previewHeight, c.frame)
}

func (c *conn) GetConfig(_ context.Context, key string) (string, error) {
	if c.closed {
		return "", fmt.Errorf("connection closed")
	}
	value, ok := c.settings[key]
	if !ok {
		return "", fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	return value, nil
}

func (c *conn) SetConfig(_ context.Context, key, value string) error {
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	choices, ok := choiceLists[key]
	if !ok {
		return fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	if !slices.Contains(choices, value) {
		return fmt.Errorf("%s=%q: %w", key, value, device.ErrInvalidValue)
	}
	c.settings[key] = value
	return nil
}

func (c *conn) ListChoices(_ context.Context, key string) ([]string, error) {
	if c.closed {
		return nil, fmt.Errorf("connection closed")
	}
	choices, ok := choiceLists[key]
	if !ok {
		return nil, fmt.Errorf("config %s: %w", key, device.ErrNotSupported)
	}
	return slices.Clone(choices), nil
}

func (c *conn) Close() error {
	c.closed = true
	return nil
}
