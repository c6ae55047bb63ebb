// Package timeline produces the scan samples that drive the color sequence.
package timeline

import (
	"time"

	"FaceScan/internal/entity"
)

// Observer receives every emitted sample synchronously.
type Observer func(entity.ScanSample)

type Timeline interface {
	// Start resets the timeline to the initial sample and begins accepting ticks.
	Start()
	// Tick advances the timeline to now. It is a no-op when not running.
	Tick(now time.Time)
	// Stop cancels the timeline. No further samples or completion follow.
	Stop()
	Running() bool
	Sample() entity.ScanSample
}

// New returns the timeline for mode. onComplete fires once when the last
// color has been shown.
func New(mode entity.TimelineMode, colors []string, observer Observer, onComplete func()) Timeline {
	if mode == entity.TimelineModeSimulated {
		return NewSimulator(colors, observer, onComplete)
	}
	return NewDriver(colors, entity.DurationPerColor, observer, onComplete)
}
