package entity

// BoundingBox is the pixel-space location of a detected face inside the
// evaluation canvas.
type BoundingBox struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func (b BoundingBox) CenterX() float64 {
	return b.OriginX + b.Width/2
}

func (b BoundingBox) CenterY() float64 {
	return b.OriginY + b.Height/2
}

type Detection struct {
	BoundingBox BoundingBox `json:"boundingBox"`
	Score       float64     `json:"score,omitempty"`
}

type FaceDirection struct {
	IsLookingLeft  bool `json:"isLookingLeft"`
	IsLookingRight bool `json:"isLookingRight"`
}

// FacePositionStatus is recomputed as a whole on every detection tick.
type FacePositionStatus struct {
	IsFaceFar                bool          `json:"isFaceFar"`
	IsFaceAlignedWithOverlay bool          `json:"isFaceAlignedWithOverlay"`
	IsFaceTooClose           bool          `json:"isFaceTooClose"`
	IsFaceNearBorder         bool          `json:"isFaceNearBorder"`
	IsIdealStartPosition     bool          `json:"isIdealStartPosition"`
	FaceDirection            FaceDirection `json:"faceDirection"`
}

// Canvas is the fixed-size frame that detections are evaluated in.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c Canvas) AspectRatio() float64 {
	if c.Height == 0 {
		return 0
	}
	return c.Width / c.Height
}
