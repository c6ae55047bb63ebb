// Package stage drives a scan session from positioning to completion.
package stage

import (
	"context"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/internal/geometry"
)

type Camera interface {
	Ready() error
	// Screenshot returns the latest frame drawn at canvas size, JPEG encoded.
	Screenshot() ([]byte, error)
	Release() error
}

type Detector interface {
	Ready() error
	// Detect returns the first face found in frame, or nil.
	Detect(ctx context.Context, frame []byte) (*entity.BoundingBox, error)
}

type Capture interface {
	Start() error
	Stop()
	Close()
	Done() bool
	ObserveSample(s entity.ScanSample)
	HandleChunk(e event.ChunkReady)
	HandleStopped(e event.RecorderStopped)
	HandleGraceElapsed()
}

// OverlaySettings is the overlay descriptor for one viewport.
type OverlaySettings struct {
	Shape              geometry.Shape
	DynamicSize        bool
	BorderColor        string
	BorderWidth        float64
	DynamicBorderColor bool
	ShowOverlayOnly    bool
}

const (
	DefaultBorderColor = "white"
	DefaultBorderWidth = 3.0

	BorderColorInside  = "green"
	BorderColorOutside = "red"

	MinDynamicScale = 0.5
	MaxDynamicScale = 1.0
)

func DefaultOverlaySettings() OverlaySettings {
	return OverlaySettings{
		Shape:              geometry.DefaultOverlay().Shape,
		BorderColor:        DefaultBorderColor,
		BorderWidth:        DefaultBorderWidth,
		DynamicBorderColor: true,
	}
}

// OverlayView is what the renderer needs to draw the overlay.
type OverlayView struct {
	Shape         string  `json:"shape"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	BoundaryScale float64 `json:"boundaryScale"`
	BorderColor   string  `json:"borderColor"`
	BorderWidth   float64 `json:"borderWidth"`
}

func borderColor(settings OverlaySettings, insideOrAligned bool) string {
	if !settings.DynamicBorderColor {
		if settings.BorderColor == "" {
			return DefaultBorderColor
		}
		return settings.BorderColor
	}
	if insideOrAligned {
		return BorderColorInside
	}
	return BorderColorOutside
}
