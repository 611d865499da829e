package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tholee-studio/camera-service/internal/version"
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(200, map[string]string{
		"ok":      "true",
		"message": "camera-service is running",
		"version": version.Get().Version,
	})
}

func (s *Server) handleHealthz(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}
