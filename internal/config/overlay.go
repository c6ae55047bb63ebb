package config

import (
	"errors"
	"fmt"
	"os"

	"FaceScan/internal/entity"
	"FaceScan/internal/geometry"
	"FaceScan/internal/stage"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

type ShapeDescriptor struct {
	Type         string  `json:"type" validate:"required,oneof=oval rectangle"`
	WidthRadius  float64 `json:"widthRadius" validate:"required_if=Type oval,gte=0"`
	HeightRadius float64 `json:"heightRadius" validate:"required_if=Type oval,gte=0"`
	Width        float64 `json:"width" validate:"required_if=Type rectangle,gte=0"`
	Height       float64 `json:"height" validate:"required_if=Type rectangle,gte=0"`
	DynamicSize  bool    `json:"dynamicSize"`
}

type OverlayDescriptor struct {
	Shape              ShapeDescriptor `json:"shape"`
	BorderColor        string          `json:"borderColor"`
	BorderWidth        *float64        `json:"borderWidth" validate:"omitempty,gte=0"`
	DynamicBorderColor *bool           `json:"dynamicBorderColor"`
	ShowOverlayOnly    bool            `json:"showOverlayOnly"`
}

// OverlayFile holds one descriptor per viewport. A file with a top-level
// "shape" is a single descriptor used for both.
type OverlayFile struct {
	Mobile  *OverlayDescriptor `json:"mobile"`
	Desktop *OverlayDescriptor `json:"desktop"`
}

// LoadOverlays reads the overlay descriptor at path. An empty path yields
// the default overlay for every viewport.
func LoadOverlays(path string, v *validator.Validate) (map[entity.Viewport]stage.OverlaySettings, error) {
	if path == "" {
		return defaultOverlays(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading overlay config: %v", entity.ErrInvalidConfiguration, err)
	}
	return ParseOverlays(data, v)
}

func ParseOverlays(data []byte, v *validator.Validate) (map[entity.Viewport]stage.OverlaySettings, error) {
	var probe map[string]jsoniter.RawMessage
	if err := jsoniter.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: overlay config: %v", entity.ErrInvalidConfiguration, err)
	}

	var file OverlayFile
	if _, flat := probe["shape"]; flat {
		var d OverlayDescriptor
		if err := jsoniter.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: overlay config: %v", entity.ErrInvalidConfiguration, err)
		}
		file.Mobile, file.Desktop = &d, &d
	} else if err := jsoniter.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: overlay config: %v", entity.ErrInvalidConfiguration, err)
	}

	if file.Mobile == nil {
		file.Mobile = file.Desktop
	}
	if file.Desktop == nil {
		file.Desktop = file.Mobile
	}

	overlays := defaultOverlays()
	for viewport, d := range map[entity.Viewport]*OverlayDescriptor{
		entity.ViewportMobile:  file.Mobile,
		entity.ViewportDesktop: file.Desktop,
	} {
		if d == nil {
			continue
		}
		settings, err := d.settings(v)
		if err != nil {
			return nil, fmt.Errorf("%s overlay: %w", viewport, err)
		}
		overlays[viewport] = settings
	}

	return overlays, nil
}

func (d *OverlayDescriptor) settings(v *validator.Validate) (stage.OverlaySettings, error) {
	if err := v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return stage.OverlaySettings{}, fmt.Errorf("%w: %s failed %s", entity.ErrInvalidConfiguration, verrs[0].Namespace(), verrs[0].Tag())
		}
		return stage.OverlaySettings{}, fmt.Errorf("%w: %v", entity.ErrInvalidConfiguration, err)
	}

	settings := stage.DefaultOverlaySettings()
	switch d.Shape.Type {
	case "oval":
		settings.Shape = geometry.Oval{WidthRadius: d.Shape.WidthRadius, HeightRadius: d.Shape.HeightRadius}
	case "rectangle":
		settings.Shape = geometry.Rectangle{Width: d.Shape.Width, Height: d.Shape.Height}
	}
	settings.DynamicSize = d.Shape.DynamicSize
	settings.ShowOverlayOnly = d.ShowOverlayOnly

	if d.BorderColor != "" {
		settings.BorderColor = d.BorderColor
	}
	if d.BorderWidth != nil {
		settings.BorderWidth = *d.BorderWidth
	}
	if d.DynamicBorderColor != nil {
		settings.DynamicBorderColor = *d.DynamicBorderColor
	}

	return settings, nil
}

func defaultOverlays() map[entity.Viewport]stage.OverlaySettings {
	return map[entity.Viewport]stage.OverlaySettings{
		entity.ViewportMobile:  stage.DefaultOverlaySettings(),
		entity.ViewportDesktop: stage.DefaultOverlaySettings(),
	}
}
