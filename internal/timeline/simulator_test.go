package timeline

import (
	"testing"
	"time"

	"FaceScan/internal/entity"
)

func TestSimulatorCrossesEveryColor(t *testing.T) {
	rec := &recorder{}
	s := NewSimulator(entity.ScanColors, rec.observe, rec.complete)
	s.Start()

	ticks := 0
	for s.Running() && ticks < 1000 {
		s.Tick(time.Time{})
		ticks++
	}

	if rec.completed != 1 {
		t.Fatalf("Expected one completion, got %d", rec.completed)
	}
	if want := len(entity.ScanColors)*5 + 1; ticks != want {
		t.Errorf("Expected %d ticks, got %d", want, ticks)
	}

	crossings := 0
	last := 0.0
	for _, sample := range rec.samples {
		if sample.ScanPosition >= entity.ColorChangeThreshold && last < entity.ColorChangeThreshold {
			crossings++
		}
		last = sample.ScanPosition
	}
	if crossings != len(entity.ScanColors) {
		t.Errorf("Expected %d threshold crossings, got %d", len(entity.ScanColors), crossings)
	}
}

func TestSimulatorPreviousColor(t *testing.T) {
	rec := &recorder{}
	s := NewSimulator(entity.ScanColors, rec.observe, rec.complete)
	s.Start()

	for i := 0; i < 6; i++ {
		s.Tick(time.Time{})
	}

	first := rec.samples[0]
	if first.CurrentColorIndex != 0 || first.PreviousColor != entity.Transparent || first.ScanPosition != 20 {
		t.Errorf("Unexpected first sample %+v", first)
	}

	sixth := rec.samples[5]
	if sixth.CurrentColorIndex != 1 {
		t.Errorf("Expected color 1 on the sixth tick, got %d", sixth.CurrentColorIndex)
	}
	if sixth.PreviousColor != entity.ScanColors[0] {
		t.Errorf("Expected previous color %s, got %s", entity.ScanColors[0], sixth.PreviousColor)
	}
	if sixth.ScanPosition != 20 {
		t.Errorf("Expected position 20, got %f", sixth.ScanPosition)
	}
}

func TestSimulatorStop(t *testing.T) {
	rec := &recorder{}
	s := NewSimulator(entity.ScanColors, rec.observe, rec.complete)
	s.Start()
	s.Tick(time.Time{})
	s.Stop()
	s.Tick(time.Time{})

	if len(rec.samples) != 1 {
		t.Errorf("Expected 1 sample, got %d", len(rec.samples))
	}
}

func TestNewSelectsByMode(t *testing.T) {
	if _, ok := New(entity.TimelineModeSimulated, entity.ScanColors, nil, nil).(*Simulator); !ok {
		t.Error("Expected a Simulator for simulated mode")
	}
	if _, ok := New(entity.TimelineModeFrame, entity.ScanColors, nil, nil).(*Driver); !ok {
		t.Error("Expected a Driver for frame mode")
	}
}
