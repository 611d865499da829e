// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Driver names accepted by CAMERA_DRIVER.
const (
	DriverGPhoto2 = "gphoto2"
	DriverWebcam  = "webcam"
	DriverSim     = "sim"
)

type Config struct {
	AppEnv    string
	Host      string
	Port      int
	LogLevel  string
	LogFormat string

	// Simulation serves fixed sample media without touching the device.
	Simulation bool

	Driver         string
	GPhoto2Bin     string
	CameraPortHint string
	WebcamDevice   string
	WebcamWidth    int
	WebcamHeight   int

	StreamFPS int

	FFmpegBin       string
	VideoInputRate  int
	VideoOutputRate int
	VideoDuration   time.Duration
	VideoPreset     string

	RatePerSecond float64
	RateBurst     int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnvInt("PORT", 2461),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Simulation:      getEnvBool("SIMULATION", false),
		Driver:          getEnv("CAMERA_DRIVER", DriverGPhoto2),
		GPhoto2Bin:      getEnv("GPHOTO2_BIN", "gphoto2"),
		CameraPortHint:  getEnv("CAMERA_PORT", ""),
		WebcamDevice:    getEnv("WEBCAM_DEVICE", "/dev/video0"),
		WebcamWidth:     getEnvInt("WEBCAM_WIDTH", 1280),
		WebcamHeight:    getEnvInt("WEBCAM_HEIGHT", 720),
		StreamFPS:       getEnvInt("STREAM_FPS", 30),
		FFmpegBin:       getEnv("FFMPEG_BIN", "ffmpeg"),
		VideoInputRate:  getEnvInt("VIDEO_INPUT_RATE", 3),
		VideoOutputRate: getEnvInt("VIDEO_OUTPUT_RATE", 30),
		VideoDuration:   getEnvDuration("VIDEO_DURATION", 15*time.Second),
		VideoPreset:     getEnv("VIDEO_PRESET", "superfast"),
		RatePerSecond:   getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RateBurst:       getEnvInt("RATE_LIMIT_BURST", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and enumerated values. Load runs it on the
// environment result; cmd/server runs it again after bootstrap flags
// override fields.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Driver {
	case DriverGPhoto2, DriverWebcam, DriverSim:
	default:
		return fmt.Errorf("CAMERA_DRIVER must be one of %q, %q, %q, got %q",
			DriverGPhoto2, DriverWebcam, DriverSim, c.Driver)
	}

	if c.StreamFPS < 1 || c.StreamFPS > 60 {
		return fmt.Errorf("STREAM_FPS must be between 1 and 60, got %d", c.StreamFPS)
	}

	if c.VideoInputRate < 1 {
		return fmt.Errorf("VIDEO_INPUT_RATE must be positive, got %d", c.VideoInputRate)
	}
	if c.VideoOutputRate < c.VideoInputRate {
		return fmt.Errorf("VIDEO_OUTPUT_RATE (%d) must be at least VIDEO_INPUT_RATE (%d)",
			c.VideoOutputRate, c.VideoInputRate)
	}
	if c.VideoOutputRate%c.VideoInputRate != 0 {
		return fmt.Errorf("VIDEO_OUTPUT_RATE (%d) must be a multiple of VIDEO_INPUT_RATE (%d)",
			c.VideoOutputRate, c.VideoInputRate)
	}
	if c.VideoDuration <= 0 {
		return fmt.Errorf("VIDEO_DURATION must be positive, got %s", c.VideoDuration)
	}

	if c.RatePerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive, got %v", c.RatePerSecond)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateBurst)
	}

	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
