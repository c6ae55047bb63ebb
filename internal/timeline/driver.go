package timeline

import (
	"math"
	"time"

	"FaceScan/internal/entity"
)

// Driver advances the scan position from elapsed wall time, one color per
// perColor duration.
type Driver struct {
	colors     []string
	perColor   time.Duration
	observer   Observer
	onComplete func()

	sample  entity.ScanSample
	start   time.Time
	started bool
	running bool
}

func NewDriver(colors []string, perColor time.Duration, observer Observer, onComplete func()) *Driver {
	return &Driver{
		colors:     colors,
		perColor:   perColor,
		observer:   observer,
		onComplete: onComplete,
		sample:     entity.InitialScanSample(),
	}
}

func (d *Driver) Start() {
	d.sample = entity.InitialScanSample()
	d.started = false
	d.running = len(d.colors) > 0
}

func (d *Driver) Stop() {
	d.running = false
}

func (d *Driver) Running() bool {
	return d.running
}

func (d *Driver) Sample() entity.ScanSample {
	return d.sample
}

func (d *Driver) Tick(now time.Time) {
	if !d.running {
		return
	}
	if !d.started {
		d.start = now
		d.started = true
	}

	elapsed := now.Sub(d.start)

	if elapsed < d.perColor {
		progress := float64(elapsed) / float64(d.perColor)
		d.sample.ScanPosition = math.Min(entity.ScanPositionMax,
			progress*(entity.ScanPositionMax+entity.ScanHeight)-entity.ScanHeight)
		d.emit()
		return
	}

	// A slow frame can jump past the bottom of the band. Make sure every
	// color is still seen at the bottom before moving on.
	if d.sample.ScanPosition < entity.ColorChangeThreshold {
		d.sample.ScanPosition = entity.ScanPositionMax
		d.emit()
		if !d.running {
			return
		}
	}

	index := d.sample.CurrentColorIndex
	if index < len(d.colors)-1 {
		d.sample = entity.ScanSample{
			CurrentColorIndex: index + 1,
			ScanPosition:      -entity.ScanHeight,
			PreviousColor:     d.colors[index],
		}
		d.start = now
		d.emit()
		return
	}

	d.running = false
	d.sample = entity.InitialScanSample()
	if d.onComplete != nil {
		d.onComplete()
	}
}

func (d *Driver) emit() {
	if d.observer != nil {
		d.observer(d.sample)
	}
}
