package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPErrorsTotal tracks HTTP errors by taxonomy type.
var HTTPErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total HTTP errors by error type",
	},
	[]string{"type"},
)

// Middleware returns an echo middleware that converts errors returned by
// handlers into the structured JSON payload, logs them at a type-appropriate
// level and counts them.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Echo's own HTTPErrors (404s from the router, middleware
			// rejections) keep their status; count them and let the
			// default handler render them.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(typeForStatus(httpErr.Code))).Inc()
				return err
			}

			serviceErr := AsServiceError(err)
			HTTPErrorsTotal.WithLabelValues(string(serviceErr.Type)).Inc()
			logError(c, serviceErr)

			if c.Response().Committed {
				// Streaming handlers may fail after the first write; the
				// connection is the only thing left to give up on.
				return nil
			}
			// A streaming handler may have staged its content type before
			// failing; c.JSON only fills an empty header.
			c.Response().Header().Del(echo.HeaderContentType)
			if err := c.JSON(serviceErr.HTTPStatus(), serviceErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case TypeInvalidParameter:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case TypeUnavailable:
		slog.WarnContext(ctx, "Camera unavailable", attrs...)
	case TypeDevice:
		slog.ErrorContext(ctx, "Device failure", attrs...)
	case TypeNotInitialized:
		slog.ErrorContext(ctx, "Session not initialized", attrs...)
	default:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	}
}

func typeForStatus(code int) ErrorType {
	switch code {
	case http.StatusBadRequest:
		return TypeInvalidParameter
	case http.StatusServiceUnavailable:
		return TypeUnavailable
	default:
		return TypeInternal
	}
}
