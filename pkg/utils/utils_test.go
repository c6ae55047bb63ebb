package utils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScaleJPEG(t *testing.T) {
	u := New()

	out, err := u.ScaleJPEG(testJPEG(t, 64, 48), 32, 40)
	if err != nil {
		t.Fatalf("ScaleJPEG failed: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 32 || cfg.Height != 40 {
		t.Errorf("Expected 32x40, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestScaleJPEGSameSize(t *testing.T) {
	u := New()
	in := testJPEG(t, 16, 16)

	out, err := u.ScaleJPEG(in, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out) {
		t.Error("Expected an already sized frame to be passed through")
	}
}

func TestScaleJPEGRejectsGarbage(t *testing.T) {
	u := New()
	if _, err := u.ScaleJPEG([]byte{0xDE, 0xAD}, 10, 10); err == nil {
		t.Error("Expected a decode error")
	}
	if _, err := u.ScaleJPEG(testJPEG(t, 8, 8), 0, 10); err == nil {
		t.Error("Expected an error for an empty target size")
	}
}

func TestRandomFromInterval(t *testing.T) {
	u := New()
	for i := 0; i < 1000; i++ {
		v := u.RandomFromInterval(0.5, 1)
		if v < 0.5 || v >= 1 {
			t.Fatalf("Value %f outside [0.5, 1)", v)
		}
	}
}

func TestNewULIDFromTimestampIsSortable(t *testing.T) {
	u := New()
	a, err := u.NewULIDFromTimestamp(time.UnixMilli(1000))
	if err != nil {
		t.Fatal(err)
	}
	b, err := u.NewULIDFromTimestamp(time.UnixMilli(2000))
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 26 || a >= b {
		t.Errorf("Expected sortable 26 char ids, got %s and %s", a, b)
	}
}

func TestSafeCommandCapturesStderr(t *testing.T) {
	cmd := NewSafeCommand(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err := cmd.Run(); err == nil {
		t.Fatal("Expected a non-zero exit")
	}
	if got := cmd.Stderr(); got != "boom" {
		t.Errorf("Expected stderr %q, got %q", "boom", got)
	}
}
