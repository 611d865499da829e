package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	// Verify all metrics are registered without conflicts

	metrics := []prometheus.Collector{
		// Device session metrics
		DeviceOpsTotal,
		DeviceOpDuration,
		SessionOpensTotal,
		SessionReleasesTotal,
		SessionOpen,

		// Liveview stream metrics
		StreamActive,
		StreamConsumers,
		StreamFramesTotal,

		// Video assembly metrics
		VideoJobsTotal,
		VideoJobDuration,
	}

	for _, metric := range metrics {
		desc := make(chan *prometheus.Desc, 1)
		metric.Describe(desc)
		close(desc)

		require.NotNil(t, <-desc, "metric should have a valid descriptor")
	}
}

func TestCounterMetrics(t *testing.T) {
	tests := []struct {
		name    string
		metric  *prometheus.CounterVec
		labels  prometheus.Labels
		incBy   int
		wantVal float64
	}{
		{
			name:    "device operations counter",
			metric:  DeviceOpsTotal,
			labels:  prometheus.Labels{"operation": "capture_still", "status": "success"},
			incBy:   5,
			wantVal: 5,
		},
		{
			name:    "session opens counter",
			metric:  SessionOpensTotal,
			labels:  prometheus.Labels{"status": "error"},
			incBy:   3,
			wantVal: 3,
		},
		{
			name:    "video jobs counter",
			metric:  VideoJobsTotal,
			labels:  prometheus.Labels{"status": "success"},
			incBy:   2,
			wantVal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.metric.Reset()

			for i := 0; i < tt.incBy; i++ {
				tt.metric.With(tt.labels).Inc()
			}

			val := testutil.ToFloat64(tt.metric.With(tt.labels))
			assert.Equal(t, tt.wantVal, val)
		})
	}
}

func TestGaugeMetrics(t *testing.T) {
	tests := []struct {
		name     string
		metric   prometheus.Gauge
		setValue float64
	}{
		{name: "session open flag", metric: SessionOpen, setValue: 1},
		{name: "stream active flag", metric: StreamActive, setValue: 1},
		{name: "stream consumers", metric: StreamConsumers, setValue: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.metric.Set(tt.setValue)
			assert.Equal(t, tt.setValue, testutil.ToFloat64(tt.metric))

			tt.metric.Set(0)
			assert.Equal(t, 0.0, testutil.ToFloat64(tt.metric))
		})
	}
}

func TestHistogramMetrics(t *testing.T) {
	t.Run("device operation duration", func(t *testing.T) {
		DeviceOpDuration.Reset()

		for _, obs := range []float64{0.01, 0.05, 0.25, 1.5} {
			DeviceOpDuration.WithLabelValues("capture_preview").Observe(obs)
		}

		count := testutil.CollectAndCount(DeviceOpDuration)
		assert.Greater(t, count, 0, "histogram should have metrics")
	})

	t.Run("video job duration", func(t *testing.T) {
		for _, obs := range []float64{0.8, 2.0, 6.5} {
			VideoJobDuration.Observe(obs)
		}

		count := testutil.CollectAndCount(VideoJobDuration)
		assert.Greater(t, count, 0, "histogram should have metrics")
	})
}

func TestMetricNaming(t *testing.T) {
	// Verify metrics follow Prometheus naming conventions: a shared
	// camera_ prefix, snake_case, descriptive suffixes.

	tests := []struct {
		name         string
		metricName   string
		wantContains string
	}{
		{"counter has _total suffix", "camera_device_operations_total", "_total"},
		{"duration has _seconds suffix", "camera_device_operation_duration_seconds", "_seconds"},
		{"gauge has descriptive name", "camera_session_open", "session"},
		{"counter has _total suffix", "camera_stream_frames_total", "_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.metricName, "camera_"),
				"metric name %s should carry the camera_ prefix", tt.metricName)
			assert.True(t, strings.Contains(tt.metricName, tt.wantContains),
				"metric name %s should contain %s", tt.metricName, tt.wantContains)
		})
	}
}
