package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/tholee-studio/camera-service/internal/camera"
	"github.com/tholee-studio/camera-service/internal/config"
	"github.com/tholee-studio/camera-service/internal/device"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
	"github.com/tholee-studio/camera-service/internal/stream"
	"github.com/tholee-studio/camera-service/internal/video"
)

// fakeAssembler records what the video handler hands over and serves a
// pre-built clip from disk.
type fakeAssembler struct {
	stills      [][]byte
	orientation string
	calls       int
	cleanups    int

	err    error
	result *video.Result
}

func (f *fakeAssembler) Assemble(_ context.Context, stills [][]byte, orientation string) (*video.Result, error) {
	f.calls++
	f.stills = stills
	f.orientation = orientation

	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return nil, apperrors.InternalError("no clip configured", nil)
	}
	return f.result, nil
}

// stubClip points the fake assembler at a real file so c.Attachment has
// something to serve.
func (f *fakeAssembler) stubClip(t *testing.T, content []byte) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	f.result = &video.Result{Path: path, Cleanup: func() { f.cleanups++ }}
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		Host:            "127.0.0.1",
		Port:            2461,
		LogLevel:        "info",
		LogFormat:       "text",
		Driver:          config.DriverSim,
		StreamFPS:       30,
		FFmpegBin:       "ffmpeg",
		VideoInputRate:  3,
		VideoOutputRate: 30,
		VideoDuration:   15 * time.Second,
		VideoPreset:     "superfast",
		RatePerSecond:   1000,
		RateBurst:       1000,
	}
}

func newTestServer(t *testing.T, driver device.Driver, opts ...func(*Server)) *Server {
	t.Helper()

	cfg := testConfig()
	session := camera.NewSession(driver)
	controller := stream.NewController(session, clockwork.NewRealClock(), cfg.StreamFPS)
	srv := NewServer(cfg, session, controller, &fakeAssembler{})

	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func withSimulation() func(*Server) {
	return func(s *Server) { s.config.Simulation = true }
}

func withAssembler(a videoAssembler) func(*Server) {
	return func(s *Server) { s.assembler = a }
}

// doRequest drives a request through the full middleware and routing stack.
func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
