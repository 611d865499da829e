package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/jawher/mow.cli"
	"github.com/jonboulle/clockwork"
	"github.com/tholee-studio/camera-service/internal/camera"
	"github.com/tholee-studio/camera-service/internal/config"
	"github.com/tholee-studio/camera-service/internal/device"
	"github.com/tholee-studio/camera-service/internal/device/gphoto"
	"github.com/tholee-studio/camera-service/internal/device/sim"
	"github.com/tholee-studio/camera-service/internal/device/webcam"
	"github.com/tholee-studio/camera-service/internal/logging"
	"github.com/tholee-studio/camera-service/internal/server"
	"github.com/tholee-studio/camera-service/internal/stream"
	"github.com/tholee-studio/camera-service/internal/version"
	"github.com/tholee-studio/camera-service/internal/video"
)

const (
	appName = "camera-service"
	appDesc = "remote camera control and capture service"
)

func main() {
	app := cli.App(appName, appDesc)
	app.Version("v version", appName+" "+version.Get().String())

	port := app.Int(cli.IntOpt{
		Name:   "p port",
		Desc:   "HTTP listen port",
		EnvVar: "PORT",
		Value:  2461,
	})

	driver := app.String(cli.StringOpt{
		Name:   "d driver",
		Desc:   "camera driver (gphoto2, webcam or sim)",
		EnvVar: "CAMERA_DRIVER",
		Value:  config.DriverGPhoto2,
	})

	simulation := app.Bool(cli.BoolOpt{
		Name:   "simulation",
		Desc:   "serve generated sample media instead of touching the camera",
		EnvVar: "SIMULATION",
		Value:  false,
	})

	logLevel := app.String(cli.StringOpt{
		Name:   "log-level",
		Desc:   "log level (debug, info, warn, error)",
		EnvVar: "LOG_LEVEL",
		Value:  "info",
	})

	app.Action = func() {
		run(*port, *driver, *simulation, *logLevel)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

func run(port int, driverName string, simulation bool, logLevel string) {
	cfg := setupConfig()

	// Bootstrap flags win over plain environment configuration. They bind
	// the same variable names, so values agree when only the env is set.
	cfg.Port = port
	cfg.Driver = driverName
	cfg.Simulation = simulation
	cfg.LogLevel = logLevel

	// Flag values skipped the Load checks, so validate again.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"version", version.Get().String(),
		"env", cfg.AppEnv,
		"addr", cfg.Addr(),
		"driver", cfg.Driver,
		"simulation", cfg.Simulation,
	)

	drv, err := buildDriver(cfg)
	if err != nil {
		slog.Error("Failed to select camera driver", "error", err)
		os.Exit(1)
	}

	session := camera.NewSession(drv)
	controller := stream.NewController(session, clockwork.NewRealClock(), cfg.StreamFPS)
	assembler := video.NewAssembler(cfg.FFmpegBin, cfg.VideoInputRate, cfg.VideoOutputRate, cfg.VideoDuration, cfg.VideoPreset)

	srv := server.NewServer(cfg, session, controller, assembler)

	done := runGracefulShutdown(srv, controller, session)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func buildDriver(cfg *config.Config) (device.Driver, error) {
	switch cfg.Driver {
	case config.DriverGPhoto2:
		return gphoto.New(cfg.GPhoto2Bin, cfg.CameraPortHint), nil
	case config.DriverWebcam:
		return webcam.New(cfg.WebcamDevice, cfg.WebcamWidth, cfg.WebcamHeight, cfg.StreamFPS), nil
	case config.DriverSim:
		return sim.New(), nil
	default:
		return nil, fmt.Errorf("unknown camera driver %q", cfg.Driver)
	}
}

func runGracefulShutdown(srv *server.Server, controller *stream.Controller, session *camera.Session) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stop releases the camera when a stream is live. The extra
		// release covers a session opened outside of streaming.
		controller.Stop()
		session.Release()

		close(done)
	}()

	return done
}
