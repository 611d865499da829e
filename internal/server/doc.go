// Package server implements the HTTP surface using Echo framework.
//
// Routes: observability (/, /healthz, /metrics), liveview control and
// streaming (/liveview, /liveview/start, /liveview/stop, /liveview/ws),
// still capture (/capture), exposure settings (/exposure, /exposure/options),
// video assembly (/video).
// Handlers split by concern: handlers_health.go, handlers_liveview.go,
// handlers_capture.go, handlers_exposure.go, handlers_video.go.
package server
