// Package gphoto drives PTP cameras through the gphoto2 command line tool.
// Every operation spawns a short-lived gphoto2 process pinned to the port
// discovered at open time, so a wedged camera never leaves a stuck daemon
// behind and a reconnect is a plain re-open.
package gphoto

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tholee-studio/camera-service/internal/device"
)

const (
	captureFile = "capture.jpg"
	previewFile = "preview.jpg"
)

// runFunc executes the gphoto2 binary and returns its stdout.
type runFunc func(ctx context.Context, bin string, args ...string) ([]byte, error)

// Driver locates cameras via gphoto2 auto-detection.
type Driver struct {
	bin      string
	portHint string
	run      runFunc
}

// New creates a Driver that shells out to the given gphoto2 binary.
// If portHint is non-empty, Open only accepts a camera on that port
// (for example "usb:001,007").
func New(bin, portHint string) *Driver {
	return &Driver{
		bin:      bin,
		portHint: portHint,
		run:      runGPhoto2,
	}
}

// Open probes for a connected camera and binds a connection to its port.
// It returns device.ErrNotDetected when nothing is attached.
func (d *Driver) Open(ctx context.Context) (device.Conn, error) {
	out, err := d.run(ctx, d.bin, "--auto-detect")
	if err != nil {
		return nil, fmt.Errorf("failed to auto-detect camera: %w", err)
	}

	cameras := parseAutoDetect(out)
	if len(cameras) == 0 {
		return nil, device.ErrNotDetected
	}

	selected := cameras[0]
	if d.portHint != "" {
		idx := slices.IndexFunc(cameras, func(c detectedCamera) bool { return c.Port == d.portHint })
		if idx < 0 {
			return nil, fmt.Errorf("no camera on port %s: %w", d.portHint, device.ErrNotDetected)
		}
		selected = cameras[idx]
	}

	dir, err := os.MkdirTemp("", "gphoto-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	return &conn{
		bin:   d.bin,
		port:  selected.Port,
		model: selected.Model,
		dir:   dir,
		run:   d.run,
	}, nil
}

// conn talks to a single camera on a fixed port. Not safe for concurrent
// use; the session layer serializes access.
type conn struct {
	bin   string
	port  string
	model string
	dir   string
	run   runFunc
}

// Model returns the camera model reported by auto-detection.
func (c *conn) Model() string {
	return c.model
}

func (c *conn) CaptureStill(ctx context.Context) ([]byte, error) {
	dst := filepath.Join(c.dir, captureFile)
	_, err := c.run(ctx, c.bin,
		"--port", c.port,
		"--capture-image-and-download",
		"--no-keep",
		"--filename", dst,
		"--force-overwrite",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture image: %w", err)
	}
	defer os.Remove(dst)

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to read captured image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("camera returned empty image")
	}
	return data, nil
}

func (c *conn) CapturePreview(ctx context.Context) ([]byte, error) {
	dst := filepath.Join(c.dir, previewFile)
	_, err := c.run(ctx, c.bin,
		"--port", c.port,
		"--capture-preview",
		"--filename", dst,
		"--force-overwrite",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture preview: %w", err)
	}
	defer os.Remove(dst)

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to read preview frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("camera returned empty preview frame")
	}
	return data, nil
}

func (c *conn) GetConfig(ctx context.Context, key string) (string, error) {
	out, err := c.run(ctx, c.bin, "--port", c.port, "--get-config", key)
	if err != nil {
		return "", fmt.Errorf("failed to read config %s: %w", key, err)
	}

	current, _ := parseConfig(out)
	if current == "" {
		return "", fmt.Errorf("no current value reported for config %s", key)
	}
	return current, nil
}

func (c *conn) SetConfig(ctx context.Context, key, value string) error {
	// gphoto2 exits non-zero for both bad values and dead cameras, which
	// are very different failures to the caller. Checking the value against
	// the choice list first keeps rejection distinguishable and off-device.
	choices, err := c.ListChoices(ctx, key)
	if err != nil {
		return err
	}
	if len(choices) > 0 && !slices.Contains(choices, value) {
		return fmt.Errorf("%s=%q: %w", key, value, device.ErrInvalidValue)
	}

	_, err = c.run(ctx, c.bin, "--port", c.port, "--set-config", fmt.Sprintf("%s=%s", key, value))
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

func (c *conn) ListChoices(ctx context.Context, key string) ([]string, error) {
	out, err := c.run(ctx, c.bin, "--port", c.port, "--get-config", key)
	if err != nil {
		return nil, fmt.Errorf("failed to list choices for %s: %w", key, err)
	}

	_, choices := parseConfig(out)
	return choices, nil
}

func (c *conn) Close() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory: %w", err)
	}
	return nil
}

// runGPhoto2 runs one gphoto2 invocation and returns its stdout. On failure
// the first stderr line is folded into the error, which is where gphoto2
// puts its human-readable diagnosis.
func runGPhoto2(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := firstLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("gphoto2 %s: %w: %s", args[len(args)-1], err, msg)
		}
		return nil, fmt.Errorf("gphoto2 %s: %w", args[len(args)-1], err)
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
