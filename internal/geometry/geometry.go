// Package geometry computes the size and placement of the overlay shape the
// face must be positioned in.
package geometry

import (
	"fmt"

	"FaceScan/internal/entity"
)

const (
	DefaultShapeWidth  = 220.0
	DefaultShapeHeight = 280.0
)

// Shape is either an Oval or a Rectangle.
type Shape interface {
	isShape()
	Name() string
}

type Oval struct {
	WidthRadius  float64
	HeightRadius float64
}

func (Oval) isShape()     {}
func (Oval) Name() string { return "oval" }

type Rectangle struct {
	Width  float64
	Height float64
}

func (Rectangle) isShape()     {}
func (Rectangle) Name() string { return "rectangle" }

// Overlay is a shape plus the multiplicative boundary scale in (0, 1].
type Overlay struct {
	Shape         Shape
	BoundaryScale float64
}

type Size struct {
	Width  float64
	Height float64
}

type Point struct {
	X float64
	Y float64
}

// Rect is the bounding rectangle of the shape footprint, Origin is top-left.
type Rect struct {
	Origin Point
	Size   Size
}

func (r Rect) CenterX() float64 { return r.Origin.X + r.Size.Width/2 }
func (r Rect) CenterY() float64 { return r.Origin.Y + r.Size.Height/2 }
func (r Rect) Right() float64   { return r.Origin.X + r.Size.Width }
func (r Rect) Bottom() float64  { return r.Origin.Y + r.Size.Height }

func DefaultOverlay() Overlay {
	return Overlay{
		Shape:         Oval{WidthRadius: DefaultShapeWidth / 2, HeightRadius: DefaultShapeHeight / 2},
		BoundaryScale: 1,
	}
}

func invalidShape(shape Shape) error {
	return fmt.Errorf("%w: unsupported overlay shape %T", entity.ErrInvalidConfiguration, shape)
}

// ShapeSize returns the scaled footprint size. Zero dimensions fall back to
// the defaults.
func ShapeSize(o Overlay) (Size, error) {
	var width, height float64
	switch s := o.Shape.(type) {
	case Oval:
		widthRadius, heightRadius := s.WidthRadius, s.HeightRadius
		if widthRadius == 0 {
			widthRadius = DefaultShapeWidth / 2
		}
		if heightRadius == 0 {
			heightRadius = DefaultShapeHeight / 2
		}
		width, height = widthRadius*2, heightRadius*2
	case Rectangle:
		width, height = s.Width, s.Height
		if width == 0 {
			width = DefaultShapeWidth
		}
		if height == 0 {
			height = DefaultShapeHeight
		}
	default:
		return Size{}, invalidShape(o.Shape)
	}

	scale := o.BoundaryScale
	if scale == 0 {
		scale = 1
	}
	return Size{Width: width * scale, Height: height * scale}, nil
}

// Offset is the drawing anchor of the shape on the canvas. An oval is anchored
// at its center, a rectangle at its top-left corner.
func Offset(o Overlay, canvas entity.Canvas, size Size) (Point, error) {
	switch o.Shape.(type) {
	case Oval:
		return Point{X: canvas.Width / 2, Y: canvas.Height / 2}, nil
	case Rectangle:
		return Point{
			X: canvas.Width/2 - size.Width/2,
			Y: canvas.Height/2 - size.Height/2,
		}, nil
	default:
		return Point{}, invalidShape(o.Shape)
	}
}

// Coordinates returns the top-left corner of the shape's bounding rectangle.
func Coordinates(o Overlay, canvas entity.Canvas) (Point, error) {
	size, err := ShapeSize(o)
	if err != nil {
		return Point{}, err
	}
	offset, err := Offset(o, canvas, size)
	if err != nil {
		return Point{}, err
	}

	switch o.Shape.(type) {
	case Oval:
		return Point{X: offset.X - size.Width/2, Y: offset.Y - size.Height/2}, nil
	default:
		return offset, nil
	}
}

// Footprint combines ShapeSize and Coordinates.
func Footprint(o Overlay, canvas entity.Canvas) (Rect, error) {
	size, err := ShapeSize(o)
	if err != nil {
		return Rect{}, err
	}
	origin, err := Coordinates(o, canvas)
	if err != nil {
		return Rect{}, err
	}
	return Rect{Origin: origin, Size: size}, nil
}

// AspectRatioAdjustment is min(ar, 1/ar) so landscape and portrait canvases of
// the same proportions scale thresholds identically.
func AspectRatioAdjustment(canvas entity.Canvas) float64 {
	ar := canvas.AspectRatio()
	if ar == 0 {
		return 0
	}
	return min(ar, 1/ar)
}
