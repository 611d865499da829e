package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tholee-studio/camera-service/internal/device"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
)

// ExposureOptions lists the values the camera accepts per exposure
// parameter. JSON field names follow the public API, not the on-device
// parameter names.
type ExposureOptions struct {
	ISO      []string `json:"iso"`
	Shutter  []string `json:"shutter"`
	Aperture []string `json:"aperture"`
}

// ExposureValues is the camera's current exposure configuration.
type ExposureValues struct {
	ISO      string `json:"iso"`
	Shutter  string `json:"shutter"`
	Aperture string `json:"aperture"`
}

// ExposureUpdate is a partial exposure change; nil fields are untouched.
type ExposureUpdate struct {
	ISO      *string
	Shutter  *string
	Aperture *string
}

// ExposureOptions enumerates the accepted values for all three exposure
// parameters in one serialized device unit.
func (s *Session) ExposureOptions(ctx context.Context) (ExposureOptions, error) {
	if err := s.EnsureOpen(ctx); err != nil {
		return ExposureOptions{}, err
	}

	var opts ExposureOptions
	err := s.timed(ctx, "exposure_options", func(conn device.Conn) error {
		var err error
		if opts.ISO, err = conn.ListChoices(ctx, device.KeyISO); err != nil {
			return err
		}
		if opts.Shutter, err = conn.ListChoices(ctx, device.KeyShutterSpeed); err != nil {
			return err
		}
		opts.Aperture, err = conn.ListChoices(ctx, device.KeyAperture)
		return err
	})
	if err != nil {
		return ExposureOptions{}, err
	}
	return opts, nil
}

// Exposure reads the current ISO, shutter speed and aperture in one
// serialized device unit.
func (s *Session) Exposure(ctx context.Context) (ExposureValues, error) {
	if err := s.EnsureOpen(ctx); err != nil {
		return ExposureValues{}, err
	}

	var values ExposureValues
	err := s.timed(ctx, "get_exposure", func(conn device.Conn) error {
		var err error
		if values.ISO, err = conn.GetConfig(ctx, device.KeyISO); err != nil {
			return err
		}
		if values.Shutter, err = conn.GetConfig(ctx, device.KeyShutterSpeed); err != nil {
			return err
		}
		values.Aperture, err = conn.GetConfig(ctx, device.KeyAperture)
		return err
	})
	if err != nil {
		return ExposureValues{}, err
	}
	return values, nil
}

// SetExposure applies the non-nil fields of update in fixed order: ISO,
// then shutter speed, then aperture. The first rejected value aborts the
// update with InvalidParameter naming that field; fields applied before it
// stay applied. There is no rollback, matching how the camera itself treats
// each parameter write as final.
func (s *Session) SetExposure(ctx context.Context, update ExposureUpdate) error {
	if err := s.EnsureOpen(ctx); err != nil {
		return err
	}

	fields := []struct {
		label string
		key   string
		value *string
	}{
		{"ISO", device.KeyISO, update.ISO},
		{"shutter", device.KeyShutterSpeed, update.Shutter},
		{"aperture", device.KeyAperture, update.Aperture},
	}

	var applied []string
	var rejectedLabel, rejectedValue string

	err := s.timed(ctx, "set_exposure", func(conn device.Conn) error {
		for _, f := range fields {
			if f.value == nil {
				continue
			}
			if err := conn.SetConfig(ctx, f.key, *f.value); err != nil {
				if errors.Is(err, device.ErrInvalidValue) {
					rejectedLabel, rejectedValue = f.label, *f.value
				}
				return err
			}
			applied = append(applied, f.label)
		}
		return nil
	})
	if err != nil {
		if rejectedLabel != "" {
			svcErr := apperrors.InvalidParameter(fmt.Sprintf("invalid %s value: %s", rejectedLabel, rejectedValue)).
				WithContext("field", rejectedLabel)
			if len(applied) > 0 {
				svcErr = svcErr.WithContext("applied", applied)
			}
			return svcErr
		}
		return err
	}

	slog.InfoContext(ctx, "Exposure updated", "fields", applied)
	return nil
}
