// Package metrics declares the Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Device session metrics
var (
	// DeviceOpsTotal tracks device operations by operation and status.
	DeviceOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_device_operations_total",
			Help: "Total device operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// DeviceOpDuration tracks device operation latency in seconds. Buckets
	// cover preview captures (tens of ms) through still captures (seconds).
	DeviceOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camera_device_operation_duration_seconds",
			Help:    "Device operation duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// SessionOpensTotal tracks camera session open attempts by status.
	SessionOpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_session_opens_total",
			Help: "Camera session open attempts by status",
		},
		[]string{"status"},
	)

	// SessionReleasesTotal tracks camera session releases.
	SessionReleasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_session_releases_total",
			Help: "Total camera session releases",
		},
	)

	// SessionOpen reports whether the device session currently holds an
	// open connection (0 or 1).
	SessionOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_session_open",
			Help: "Whether the camera session is currently open (0 or 1)",
		},
	)
)

// Liveview stream metrics
var (
	// StreamActive reports whether the liveview stream is running (0 or 1).
	StreamActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_stream_active",
			Help: "Whether the liveview stream is active (0 or 1)",
		},
	)

	// StreamConsumers tracks currently attached liveview consumers.
	StreamConsumers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "camera_stream_consumers",
			Help: "Number of attached liveview consumers",
		},
	)

	// StreamFramesTotal tracks preview frames emitted to consumers.
	StreamFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "camera_stream_frames_total",
			Help: "Total preview frames emitted to liveview consumers",
		},
	)
)

// Video assembly metrics
var (
	// VideoJobsTotal tracks video assembly jobs by status.
	VideoJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camera_video_jobs_total",
			Help: "Video assembly jobs by status",
		},
		[]string{"status"},
	)

	// VideoJobDuration tracks end-to-end video assembly duration in seconds.
	VideoJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "camera_video_job_duration_seconds",
			Help:    "Video assembly duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
