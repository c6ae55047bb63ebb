package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"FaceScan/internal/entity"
)

type Config struct {
	AppEnv string
	Port   string

	BackendURL string
	APIKey     string

	// AccessKey guards the local control API when set.
	AccessKey string

	Canvas      entity.Canvas
	OverlayPath string

	TimelineMode     entity.TimelineMode
	SkipPositionGate bool

	FrameInterval     time.Duration
	FaceCheckInterval time.Duration
	FlushInterval     time.Duration
	GraceDelay        time.Duration

	FFmpegPath        string
	CameraInputFormat string
	CameraDevice      string
	CameraFrameRate   int

	DetectorCmd string
}

// Load reads the process environment. Call godotenv first to pick up a
// .env file.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            envString("APP_ENV", "development"),
		Port:              envString("APP_PORT", "3000"),
		APIKey:            os.Getenv("API_KEY"),
		AccessKey:         os.Getenv("CONTROL_API_KEY"),
		OverlayPath:       os.Getenv("OVERLAY_CONFIG"),
		FFmpegPath:        envString("FFMPEG_PATH", "ffmpeg"),
		CameraInputFormat: envString("CAMERA_INPUT_FORMAT", "v4l2"),
		CameraDevice:      envString("CAMERA_DEVICE", "/dev/video0"),
		DetectorCmd:       os.Getenv("DETECTOR_CMD"),
	}

	if url := strings.TrimSuffix(os.Getenv("BACKEND_URL"), "/"); url != "" {
		cfg.BackendURL = url + "/ws"
	}

	width, err := envInt("CANVAS_WIDTH", 640)
	if err != nil {
		return nil, err
	}
	height, err := envInt("CANVAS_HEIGHT", 480)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas must be positive, got %dx%d", entity.ErrInvalidConfiguration, width, height)
	}
	cfg.Canvas = entity.Canvas{Width: float64(width), Height: float64(height)}

	if cfg.CameraFrameRate, err = envInt("CAMERA_FRAME_RATE", 30); err != nil {
		return nil, err
	}

	mode := envString("SCAN_TIMELINE_MODE", entity.TimelineModeFrame.String())
	var ok bool
	if cfg.TimelineMode, ok = entity.ParseTimelineMode(mode); !ok {
		return nil, fmt.Errorf("%w: SCAN_TIMELINE_MODE %q", entity.ErrInvalidConfiguration, mode)
	}

	if cfg.SkipPositionGate, err = envBool("SCAN_SKIP_POSITION_GATE", false); err != nil {
		return nil, err
	}

	if cfg.FrameInterval, err = envDuration("SCAN_FRAME_INTERVAL", 16*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.FaceCheckInterval, err = envDuration("FACE_CHECK_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.FlushInterval, err = envDuration("RECORDER_FLUSH_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.GraceDelay, err = envDuration("FINAL_GRACE_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", entity.ErrInvalidConfiguration, key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", entity.ErrInvalidConfiguration, key, v)
	}
	return b, nil
}

// envDuration accepts a Go duration ("16ms") or a bare number of milliseconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", entity.ErrInvalidConfiguration, key, v)
	}
	return d, nil
}
