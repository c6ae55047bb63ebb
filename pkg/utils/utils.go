package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"image"
	"image/jpeg"
	mathrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/image/draw"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	RandomFromInterval(min, max float64) float64
	ScaleJPEG(frame []byte, width, height int) ([]byte, error)
}

type utils struct {
	jpegQuality int
}

func New() IUtils {
	return &utils{
		jpegQuality: 85,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// RandomFromInterval returns a uniform value in [min, max).
func (u *utils) RandomFromInterval(min, max float64) float64 {
	return mathrand.Float64()*(max-min) + min
}

// ScaleJPEG draws frame into a width x height image and re-encodes it. The
// frame is stretched, not letterboxed.
func (u *utils) ScaleJPEG(frame []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid target size")
	}

	src, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return frame, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: u.jpegQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
