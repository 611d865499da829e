package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/tholee-studio/camera-service/internal/device/sim"
	apperrors "github.com/tholee-studio/camera-service/internal/errors"
)

const (
	streamBoundary    = "frame"
	streamContentType = "multipart/x-mixed-replace; boundary=" + streamBoundary
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers embed the stream cross-origin
	},
}

func (s *Server) handleStreamStart(c echo.Context) error {
	if s.config.Simulation {
		return c.JSON(200, map[string]string{"status": "Stream started"})
	}

	alreadyRunning, err := s.controller.Start(c.Request().Context())
	if err != nil {
		return err
	}
	if alreadyRunning {
		return c.JSON(200, map[string]string{"status": "Stream already running"})
	}
	return c.JSON(200, map[string]string{"status": "Stream started"})
}

func (s *Server) handleStreamStop(c echo.Context) error {
	if s.config.Simulation {
		return c.JSON(200, map[string]string{"status": "Stream stopped"})
	}

	s.controller.Stop()
	return c.JSON(200, map[string]string{"status": "Stream stopped"})
}

func (s *Server) handleLiveview(c echo.Context) error {
	if s.config.Simulation {
		frame, err := sim.SamplePreview(int(s.sampleSeq.Add(1)))
		if err != nil {
			return apperrors.InternalError("failed to render sample frame", err)
		}
		return c.Blob(200, "image/jpeg", frame)
	}

	if !s.controller.Active() {
		return apperrors.InvalidParameter("stream not active, call /liveview/start first")
	}

	// The status line goes out with the first frame, so a failure on the
	// very first capture still reaches the client as a JSON error.
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, streamContentType)

	return s.controller.Stream(c.Request().Context(), func(frame []byte) error {
		return writeStreamPart(resp, frame)
	})
}

func writeStreamPart(resp *echo.Response, frame []byte) error {
	if _, err := fmt.Fprintf(resp, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(frame)); err != nil {
		return err
	}
	if _, err := resp.Write(frame); err != nil {
		return err
	}
	if _, err := io.WriteString(resp, "\r\n"); err != nil {
		return err
	}
	resp.Flush()
	return nil
}

func (s *Server) handleLiveviewWS(c echo.Context) error {
	if !s.controller.Active() {
		return apperrors.InvalidParameter("stream not active, call /liveview/start first")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade websocket: %w", err)
	}
	defer conn.Close()

	// The read pump's only job is noticing the peer going away.
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = s.controller.Stream(ctx, func(frame []byte) error {
		conn.SetWriteDeadline(time.Now().Add(s.wsWriteWait))
		return conn.WriteMessage(websocket.BinaryMessage, frame)
	})
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream failed")
		conn.SetWriteDeadline(time.Now().Add(s.wsWriteWait))
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.SetWriteDeadline(time.Now().Add(s.wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return nil
}
