package server

import (
	"github.com/labstack/echo/v4"
	"github.com/tholee-studio/camera-service/internal/device/sim"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
)

func (s *Server) handleCapture(c echo.Context) error {
	if s.config.Simulation {
		still, err := sim.SampleStill()
		if err != nil {
			return apperrors.InternalError("failed to render sample image", err)
		}
		return c.Blob(200, "image/jpeg", still)
	}

	still, err := s.session.CaptureStill(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Blob(200, "image/jpeg", still)
}
