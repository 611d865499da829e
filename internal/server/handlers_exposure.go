package server

import (
	"github.com/labstack/echo/v4"
	"github.com/tholee-studio/camera-service/internal/camera"
)

func (s *Server) handleExposureOptions(c echo.Context) error {
	options, err := s.session.ExposureOptions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, options)
}

func (s *Server) handleGetExposure(c echo.Context) error {
	values, err := s.session.Exposure(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(200, values)
}

func (s *Server) handleSetExposure(c echo.Context) error {
	update := camera.ExposureUpdate{
		ISO:      queryValue(c, "iso"),
		Shutter:  queryValue(c, "shutter"),
		Aperture: queryValue(c, "aperture"),
	}

	if err := s.session.SetExposure(c.Request().Context(), update); err != nil {
		return err
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// queryValue returns the named parameter, or nil when it is absent or
// empty. An empty value leaves the setting untouched, the same as not
// sending the parameter at all.
func queryValue(c echo.Context, name string) *string {
	value := c.QueryParam(name)
	if value == "" {
		return nil
	}
	return &value
}
