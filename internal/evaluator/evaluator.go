// Package evaluator turns a detected face bounding box into geometric
// pass/fail signals relative to the overlay shape.
package evaluator

import (
	"math"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/geometry"
)

const (
	// Initial position (farther)
	InitialMinFaceSizeRatio = 0.35
	InitialMaxFaceSizeRatio = 0.45

	// Final position (closer)
	FinalMinFaceSizeRatio = 0.50
	FinalMaxFaceSizeRatio = 0.60

	AlignmentThreshold       = 0.3
	BorderProximityThreshold = 15.0

	HorizontalThreshold = 0.15

	FaceCheckInterval = 500 * time.Millisecond
)

type Evaluation struct {
	Status               entity.FacePositionStatus
	IsFaceInsideBoundary bool
	HasFace              bool

	// FaceSizeRatio is already multiplied by Adjustment.
	FaceSizeRatio float64
	Adjustment    float64
	Footprint     geometry.Rect
}

// RawSizeRatio is the face size ratio before aspect-ratio adjustment.
func (e Evaluation) RawSizeRatio() float64 {
	if e.Adjustment == 0 {
		return 0
	}
	return e.FaceSizeRatio / e.Adjustment
}

// Evaluate computes the position status of box against the overlay on the
// given canvas. A nil box is a detection miss and yields the neutral status.
func Evaluate(box *entity.BoundingBox, overlay geometry.Overlay, canvas entity.Canvas) (Evaluation, error) {
	if box == nil {
		return Evaluation{}, nil
	}

	footprint, err := geometry.Footprint(overlay, canvas)
	if err != nil {
		return Evaluation{}, err
	}

	adjustment := geometry.AspectRatioAdjustment(canvas)

	faceSize := math.Max(box.Width, box.Height)
	overlaySize := math.Max(footprint.Size.Width, footprint.Size.Height)
	faceSizeRatio := faceSize / overlaySize * adjustment

	adjustedInitialMin := InitialMinFaceSizeRatio * adjustment
	adjustedInitialMax := InitialMaxFaceSizeRatio * adjustment
	adjustedFinalMax := FinalMaxFaceSizeRatio * adjustment

	xAlignmentDiff := math.Abs(box.CenterX()-footprint.CenterX()) / (footprint.Size.Width / 2)
	yAlignmentDiff := math.Abs(box.CenterY()-footprint.CenterY()) / (footprint.Size.Height / 2)

	isAligned := xAlignmentDiff < AlignmentThreshold && yAlignmentDiff < AlignmentThreshold

	// xAlignmentDiff is an absolute value, so IsLookingLeft never fires.
	// Kept as-is until the direction sign is clarified.
	direction := entity.FaceDirection{
		IsLookingLeft:  xAlignmentDiff < -HorizontalThreshold,
		IsLookingRight: xAlignmentDiff > HorizontalThreshold,
	}

	status := entity.FacePositionStatus{
		IsFaceFar:                faceSizeRatio < adjustedInitialMin,
		IsFaceAlignedWithOverlay: isAligned,
		IsFaceTooClose:           faceSizeRatio > adjustedFinalMax,
		IsFaceNearBorder:         isNearBorder(*box, footprint),
		IsIdealStartPosition:     faceSizeRatio >= adjustedInitialMin && faceSizeRatio <= adjustedInitialMax,
		FaceDirection:            direction,
	}

	return Evaluation{
		Status:               status,
		IsFaceInsideBoundary: IsFaceInsideBoundary(*box, footprint),
		HasFace:              true,
		FaceSizeRatio:        faceSizeRatio,
		Adjustment:           adjustment,
		Footprint:            footprint,
	}, nil
}

// IsFaceInsideBoundary reports whether box lies strictly inside the footprint.
func IsFaceInsideBoundary(box entity.BoundingBox, footprint geometry.Rect) bool {
	return box.OriginX > footprint.Origin.X &&
		box.OriginY > footprint.Origin.Y &&
		box.OriginX+box.Width < footprint.Right() &&
		box.OriginY+box.Height < footprint.Bottom()
}

func isNearBorder(box entity.BoundingBox, footprint geometry.Rect) bool {
	leftDistance := math.Abs(box.OriginX - footprint.Origin.X)
	rightDistance := math.Abs((box.OriginX + box.Width) - footprint.Right())
	topDistance := math.Abs(box.OriginY - footprint.Origin.Y)
	bottomDistance := math.Abs((box.OriginY + box.Height) - footprint.Bottom())

	return leftDistance < BorderProximityThreshold ||
		rightDistance < BorderProximityThreshold ||
		topDistance < BorderProximityThreshold ||
		bottomDistance < BorderProximityThreshold
}
