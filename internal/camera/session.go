// Package camera owns the device session: one mutex-serialized, lazily
// opened connection to the camera shared by every endpoint. The session is
// the only component allowed to hold a device.Conn, and it is self-healing:
// a failed operation releases the connection so the next request starts
// from a clean open instead of poking a wedged device.
package camera

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tholee-studio/camera-service/internal/device"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
	"github.com/tholee-studio/camera-service/internal/metrics"
)

// Session coordinates all access to the camera. The zero value is not
// usable; create one with NewSession.
type Session struct {
	driver device.Driver

	mu   sync.Mutex
	conn device.Conn
}

// NewSession creates a released session on top of the given driver.
func NewSession(driver device.Driver) *Session {
	return &Session{driver: driver}
}

// EnsureOpen makes sure a device connection exists, opening one if needed.
// It is idempotent and cheap when the session is already open. A failed
// open leaves the session released and returns DeviceUnavailable; failures
// are never cached, the next call probes again.
func (s *Session) EnsureOpen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureOpenLocked(ctx)
}

func (s *Session) ensureOpenLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	conn, err := s.driver.Open(ctx)
	if err != nil {
		metrics.SessionOpensTotal.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Camera initialization failed", "error", err)
		return apperrors.DeviceUnavailable("camera initialization failed", err)
	}

	s.conn = conn
	metrics.SessionOpensTotal.WithLabelValues("success").Inc()
	metrics.SessionOpen.Set(1)
	slog.InfoContext(ctx, "Camera initialized")
	return nil
}

// Release closes the device connection if one exists. Close errors are
// logged, never propagated; afterwards the session is released either way.
// Releasing a released session is a no-op.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(context.Background(), "requested")
}

func (s *Session) releaseLocked(ctx context.Context, reason string) {
	if s.conn == nil {
		return
	}

	if err := s.conn.Close(); err != nil {
		slog.WarnContext(ctx, "Camera close failed", "error", err, "reason", reason)
	} else {
		slog.InfoContext(ctx, "Camera released", "reason", reason)
	}

	s.conn = nil
	metrics.SessionReleasesTotal.Inc()
	metrics.SessionOpen.Set(0)
}

// Open reports whether the session currently holds a device connection.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// WithConn runs op against the device connection with the session mutex
// held, so no two device operations ever overlap. Calling it on a released
// session yields NotInitialized without invoking op.
//
// Error handling encodes the self-healing contract: ErrInvalidValue from op
// means the caller sent a bad value and the device is fine, so the
// connection survives and the error maps to InvalidParameter. Any other
// failure leaves the device in unknown state, so the connection is closed
// and discarded before DeviceFailure is returned.
func (s *Session) WithConn(ctx context.Context, op func(device.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return apperrors.NotInitialized("camera session not initialized")
	}

	err := op(s.conn)
	if err == nil {
		return nil
	}

	if errors.Is(err, device.ErrInvalidValue) {
		return apperrors.InvalidParameter(err.Error())
	}

	s.releaseLocked(ctx, "device failure")
	return apperrors.DeviceFailure("camera operation failed", err)
}

// CaptureStill acquires one full-resolution image, opening the session
// first if needed. The capture, fetch and on-camera delete run as a single
// serialized unit inside the driver call.
func (s *Session) CaptureStill(ctx context.Context) ([]byte, error) {
	if err := s.EnsureOpen(ctx); err != nil {
		return nil, err
	}

	var image []byte
	err := s.timed(ctx, "capture_still", func(conn device.Conn) error {
		var err error
		image, err = conn.CaptureStill(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Still captured", "bytes", len(image))
	return image, nil
}

// timed wraps WithConn with the device operation metrics.
func (s *Session) timed(ctx context.Context, op string, fn func(device.Conn) error) error {
	start := time.Now()
	err := s.WithConn(ctx, fn)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DeviceOpsTotal.WithLabelValues(op, status).Inc()
	metrics.DeviceOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}
