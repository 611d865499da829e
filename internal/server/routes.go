package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Liveview control and streaming
	s.echo.GET("/liveview/start", s.handleStreamStart)
	s.echo.GET("/liveview/stop", s.handleStreamStop)
	s.echo.GET("/liveview", s.handleLiveview)
	s.echo.GET("/liveview/ws", s.handleLiveviewWS)

	// Still capture and exposure settings
	s.echo.GET("/capture", s.handleCapture, s.limiter)
	s.echo.GET("/exposure/options", s.handleExposureOptions)
	s.echo.GET("/exposure", s.handleGetExposure)
	s.echo.POST("/exposure", s.handleSetExposure)

	// Video assembly
	s.echo.POST("/video", s.handleVideo, s.limiter)
}
