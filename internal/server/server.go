package server

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tholee-studio/camera-service/internal/camera"
	"github.com/tholee-studio/camera-service/internal/config"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
	"github.com/tholee-studio/camera-service/internal/stream"
	"github.com/tholee-studio/camera-service/internal/video"
)

// videoAssembler turns an ordered batch of stills into an encoded clip.
type videoAssembler interface {
	Assemble(ctx context.Context, stills [][]byte, orientation string) (*video.Result, error)
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	session    *camera.Session
	controller *stream.Controller
	assembler  videoAssembler
	limiter    echo.MiddlewareFunc
	startTime  time.Time

	// wsWriteWait bounds each websocket write so a viewer that stopped
	// reading cannot pin its handler goroutine.
	wsWriteWait time.Duration

	// sampleSeq animates the simulated liveview across requests.
	sampleSeq atomic.Int64
}

func NewServer(cfg *config.Config, session *camera.Session, controller *stream.Controller, assembler videoAssembler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestID())
	e.Use(requestLogger())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		session:     session,
		controller:  controller,
		assembler:   assembler,
		limiter:     rateLimiter(cfg.RatePerSecond, cfg.RateBurst),
		startTime:   time.Now(),
		wsWriteWait: 5 * time.Second,
	}

	// Register routes
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.Addr(), "simulation", s.config.Simulation)
	return s.echo.Start(s.config.Addr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
