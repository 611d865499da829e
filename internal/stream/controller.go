// Package stream runs the liveview loop: a paced pull of preview frames
// from the camera session, fanned out to HTTP consumers. The controller
// holds the global active flag; each consumer drives its own pull loop on
// its handler goroutine, so the device mutex is held per capture and never
// across pacing sleeps.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tholee-studio/camera-service/internal/device"
	"github.com/tholee-studio/camera-service/internal/metrics"
)

// Session is the slice of the camera session the controller needs.
// Implemented by *camera.Session.
type Session interface {
	EnsureOpen(ctx context.Context) error
	Release()
	WithConn(ctx context.Context, op func(device.Conn) error) error
}

// Controller coordinates the liveview stream lifecycle.
type Controller struct {
	session  Session
	clock    clockwork.Clock
	fps      int
	interval time.Duration

	mu     sync.Mutex
	active bool
}

// NewController creates a stopped controller pacing frames at fps.
func NewController(session Session, clock clockwork.Clock, fps int) *Controller {
	if fps < 1 {
		fps = 1
	}
	return &Controller{
		session:  session,
		clock:    clock,
		fps:      fps,
		interval: time.Second / time.Duration(fps),
	}
}

// Start opens the camera and activates the stream. When the camera cannot
// be opened the controller stays inactive and the open error is returned.
// Starting an active stream is a no-op; the return value reports whether
// the stream was already running.
func (c *Controller) Start(ctx context.Context) (alreadyRunning bool, err error) {
	if err := c.session.EnsureOpen(ctx); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return true, nil
	}

	c.active = true
	metrics.StreamActive.Set(1)
	slog.InfoContext(ctx, "Stream started", "fps", c.fps)
	return false, nil
}

// Stop deactivates the stream and releases the camera. It is idempotent
// and also releases when no stream was running, so a stop request always
// leaves the device free for other programs.
func (c *Controller) Stop() {
	wasActive := c.deactivate()
	c.session.Release()
	if wasActive {
		slog.Info("Stream stopped")
	}
}

// Active reports whether the stream is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) deactivate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasActive := c.active
	c.active = false
	if wasActive {
		metrics.StreamActive.Set(0)
	}
	return wasActive
}

// Stream pulls frames for one consumer until the stream stops, the
// consumer's ctx ends, emit fails or the device fails. It runs on the
// caller's goroutine.
//
// Termination is deliberately asymmetric: a consumer going away (ctx or
// emit error) ends only that consumer and returns nil, while a device
// failure deactivates the whole stream and returns the error. The session
// has already released the broken connection by then, so deactivation is
// the only global cleanup left.
func (c *Controller) Stream(ctx context.Context, emit func([]byte) error) error {
	metrics.StreamConsumers.Inc()
	defer metrics.StreamConsumers.Dec()

	for {
		if !c.Active() || ctx.Err() != nil {
			return nil
		}

		var frame []byte
		err := c.session.WithConn(ctx, func(conn device.Conn) error {
			var err error
			frame, err = conn.CapturePreview(ctx)
			return err
		})
		if err != nil {
			if !c.Active() {
				// Stopped while the capture was in flight.
				return nil
			}
			c.deactivate()
			slog.ErrorContext(ctx, "Stream capture failed", "error", err)
			return err
		}

		metrics.StreamFramesTotal.Inc()
		if err := emit(frame); err != nil {
			slog.DebugContext(ctx, "Stream consumer left", "error", err)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(c.interval):
		}
	}
}
