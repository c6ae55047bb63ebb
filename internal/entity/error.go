package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrResourceUnavailable  = errors.New("resource unavailable")
	ErrCaptureUnavailable   = fmt.Errorf("capture unavailable: %w", ErrResourceUnavailable)
	ErrDetectorUnavailable  = fmt.Errorf("face detector unavailable: %w", ErrResourceUnavailable)
	ErrCameraUnavailable    = fmt.Errorf("camera unavailable: %w", ErrResourceUnavailable)
	ErrTransportNotReady    = errors.New("transport not ready")
)
