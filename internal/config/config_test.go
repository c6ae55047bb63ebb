package config

import (
	"errors"
	"testing"
	"time"

	"FaceScan/internal/entity"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "BACKEND_URL", "CANVAS_WIDTH", "CANVAS_HEIGHT", "SCAN_TIMELINE_MODE",
		"SCAN_SKIP_POSITION_GATE", "SCAN_FRAME_INTERVAL", "FACE_CHECK_INTERVAL",
		"RECORDER_FLUSH_INTERVAL", "FINAL_GRACE_DELAY", "CAMERA_FRAME_RATE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Expected port 3000, got %s", cfg.Port)
	}
	if cfg.BackendURL != "" {
		t.Errorf("Expected empty backend URL, got %s", cfg.BackendURL)
	}
	if cfg.Canvas != (entity.Canvas{Width: 640, Height: 480}) {
		t.Errorf("Unexpected canvas %+v", cfg.Canvas)
	}
	if cfg.TimelineMode != entity.TimelineModeFrame {
		t.Errorf("Expected frame mode, got %s", cfg.TimelineMode)
	}
	if cfg.FrameInterval != 16*time.Millisecond || cfg.FaceCheckInterval != 500*time.Millisecond ||
		cfg.FlushInterval != time.Second || cfg.GraceDelay != 500*time.Millisecond {
		t.Errorf("Unexpected intervals %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "wss://verify.example.com/")
	t.Setenv("CANVAS_WIDTH", "1280")
	t.Setenv("CANVAS_HEIGHT", "720")
	t.Setenv("SCAN_TIMELINE_MODE", "simulated")
	t.Setenv("SCAN_SKIP_POSITION_GATE", "true")
	t.Setenv("FACE_CHECK_INTERVAL", "250")
	t.Setenv("FINAL_GRACE_DELAY", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BackendURL != "wss://verify.example.com/ws" {
		t.Errorf("Expected /ws appended, got %s", cfg.BackendURL)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 {
		t.Errorf("Unexpected canvas %+v", cfg.Canvas)
	}
	if cfg.TimelineMode != entity.TimelineModeSimulated || !cfg.SkipPositionGate {
		t.Errorf("Unexpected scan settings %+v", cfg)
	}
	if cfg.FaceCheckInterval != 250*time.Millisecond || cfg.GraceDelay != time.Second {
		t.Errorf("Unexpected intervals %v %v", cfg.FaceCheckInterval, cfg.GraceDelay)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CANVAS_WIDTH", "wide"},
		{"CANVAS_HEIGHT", "0"},
		{"SCAN_TIMELINE_MODE", "slow-motion"},
		{"SCAN_SKIP_POSITION_GATE", "maybe"},
		{"SCAN_FRAME_INTERVAL", "soon"},
		{"RECORDER_FLUSH_INTERVAL", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); !errors.Is(err, entity.ErrInvalidConfiguration) {
				t.Errorf("Expected ErrInvalidConfiguration for %s=%s, got %v", tt.key, tt.value, err)
			}
		})
	}
}

func TestNewServerRequiresComponents(t *testing.T) {
	if _, err := NewServer(); err == nil {
		t.Error("Expected an error without a fiber app")
	}
	if _, err := NewServer(WithConfig(nil)); !errors.Is(err, entity.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for nil config, got %v", err)
	}
	if _, err := NewServer(WithMiddleware("")); err == nil {
		t.Error("Expected middleware to require a logger")
	}
}
