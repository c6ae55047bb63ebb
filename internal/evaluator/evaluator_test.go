package evaluator

import (
	"errors"
	"math"
	"testing"

	"FaceScan/internal/entity"
	"FaceScan/internal/geometry"
)

var (
	testOverlay = geometry.Overlay{
		Shape:         geometry.Oval{WidthRadius: 110, HeightRadius: 140},
		BoundaryScale: 1,
	}
	testCanvas = entity.Canvas{Width: 400, Height: 500}
)

func TestEvaluateNoFace(t *testing.T) {
	got, err := Evaluate(nil, testOverlay, testCanvas)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got.Status != (entity.FacePositionStatus{}) {
		t.Errorf("Expected neutral status, got %+v", got.Status)
	}
	if got.HasFace || got.IsFaceInsideBoundary {
		t.Error("A detection miss must not report a face inside the boundary")
	}
}

func TestEvaluateScenario(t *testing.T) {
	box := &entity.BoundingBox{OriginX: 150, OriginY: 160, Width: 110, Height: 140}

	got, err := Evaluate(box, testOverlay, testCanvas)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// adjustment = min(0.8, 1.25) = 0.8, ratio = 140/280 * 0.8
	if math.Abs(got.Adjustment-0.8) > 1e-9 {
		t.Errorf("Expected adjustment 0.8, got %f", got.Adjustment)
	}
	if math.Abs(got.FaceSizeRatio-0.4) > 1e-9 {
		t.Errorf("Expected face size ratio 0.4, got %f", got.FaceSizeRatio)
	}
	if math.Abs(got.RawSizeRatio()-0.5) > 1e-9 {
		t.Errorf("Expected raw ratio 0.5, got %f", got.RawSizeRatio())
	}

	s := got.Status
	if s.IsIdealStartPosition {
		t.Error("0.4 is above the adjusted ideal band, expected IsIdealStartPosition=false")
	}
	if s.IsFaceTooClose {
		t.Error("0.4 is below the adjusted final max 0.48, expected IsFaceTooClose=false")
	}
	if s.IsFaceFar {
		t.Error("0.4 is above the adjusted initial min 0.28, expected IsFaceFar=false")
	}
	if !s.IsFaceAlignedWithOverlay {
		t.Error("Face center is within 0.3 of the shape center, expected aligned")
	}
	if s.IsFaceNearBorder {
		t.Error("Every edge is at least 50px away, expected not near border")
	}
	if s.FaceDirection.IsLookingLeft || s.FaceDirection.IsLookingRight {
		t.Errorf("Expected no direction, got %+v", s.FaceDirection)
	}
	if !got.IsFaceInsideBoundary {
		t.Error("Expected face inside boundary")
	}
}

func TestEvaluateThresholds(t *testing.T) {
	square := entity.Canvas{Width: 500, Height: 500}
	overlay := geometry.Overlay{Shape: geometry.Rectangle{Width: 200, Height: 200}, BoundaryScale: 1}

	tests := []struct {
		name  string
		side  float64
		far   bool
		ideal bool
		close bool
	}{
		{"far", 60, true, false, false},
		{"ideal lower bound", 70, false, true, false},
		{"ideal", 80, false, true, false},
		{"between ideal and too close", 110, false, false, false},
		{"too close", 130, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := &entity.BoundingBox{
				OriginX: 250 - tt.side/2,
				OriginY: 250 - tt.side/2,
				Width:   tt.side,
				Height:  tt.side,
			}
			got, err := Evaluate(box, overlay, square)
			if err != nil {
				t.Fatal(err)
			}
			if got.Status.IsFaceFar != tt.far {
				t.Errorf("IsFaceFar: expected %v, got %v", tt.far, got.Status.IsFaceFar)
			}
			if got.Status.IsIdealStartPosition != tt.ideal {
				t.Errorf("IsIdealStartPosition: expected %v, got %v", tt.ideal, got.Status.IsIdealStartPosition)
			}
			if got.Status.IsFaceTooClose != tt.close {
				t.Errorf("IsFaceTooClose: expected %v, got %v", tt.close, got.Status.IsFaceTooClose)
			}
		})
	}
}

func TestEvaluateOffCenter(t *testing.T) {
	// Shape footprint is (90,110)-(310,390); push the face right and against the edge.
	box := &entity.BoundingBox{OriginX: 190, OriginY: 180, Width: 110, Height: 140}

	got, err := Evaluate(box, testOverlay, testCanvas)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Status.FaceDirection.IsLookingRight {
		t.Error("Expected looking right for a face pushed right of center")
	}
	if got.Status.FaceDirection.IsLookingLeft {
		t.Error("Looking left is computed from an absolute difference and must stay false")
	}
	if !got.Status.IsFaceNearBorder {
		t.Error("Right edge is 10px from the shape, expected near border")
	}
}

func TestEvaluateLeftOffsetStillReportsRight(t *testing.T) {
	box := &entity.BoundingBox{OriginX: 100, OriginY: 180, Width: 110, Height: 140}

	got, err := Evaluate(box, testOverlay, testCanvas)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status.FaceDirection.IsLookingLeft {
		t.Error("IsLookingLeft is unreachable with an absolute alignment difference")
	}
	if !got.Status.FaceDirection.IsLookingRight {
		t.Error("Expected the absolute offset to trip IsLookingRight")
	}
}

func TestEvaluateInvalidShape(t *testing.T) {
	box := &entity.BoundingBox{OriginX: 1, OriginY: 1, Width: 1, Height: 1}
	_, err := Evaluate(box, geometry.Overlay{}, testCanvas)
	if !errors.Is(err, entity.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestIsFaceInsideBoundaryEnclosed(t *testing.T) {
	footprint := geometry.Rect{
		Origin: geometry.Point{X: 90, Y: 110},
		Size:   geometry.Size{Width: 220, Height: 280},
	}

	for _, margin := range []float64{0.5, 1, 10, 50} {
		box := entity.BoundingBox{
			OriginX: footprint.Origin.X + margin,
			OriginY: footprint.Origin.Y + margin,
			Width:   footprint.Size.Width - 2*margin,
			Height:  footprint.Size.Height - 2*margin,
		}
		if !IsFaceInsideBoundary(box, footprint) {
			t.Errorf("Box with margin %.1f should be inside", margin)
		}
	}

	touching := entity.BoundingBox{OriginX: 90, OriginY: 120, Width: 100, Height: 100}
	if IsFaceInsideBoundary(touching, footprint) {
		t.Error("A box touching the left edge is not strictly inside")
	}
}
