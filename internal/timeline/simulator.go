package timeline

import (
	"time"

	"FaceScan/internal/entity"
)

// Simulator steps the scan position by a fixed amount per tick regardless
// of elapsed time.
type Simulator struct {
	colors     []string
	step       float64
	observer   Observer
	onComplete func()

	sample  entity.ScanSample
	advance bool
	running bool
}

func NewSimulator(colors []string, observer Observer, onComplete func()) *Simulator {
	return &Simulator{
		colors:     colors,
		step:       entity.SimulatedScanStep,
		observer:   observer,
		onComplete: onComplete,
	}
}

func (s *Simulator) Start() {
	s.sample = entity.ScanSample{PreviousColor: entity.Transparent}
	s.advance = false
	s.running = len(s.colors) > 0
}

func (s *Simulator) Stop() {
	s.running = false
}

func (s *Simulator) Running() bool {
	return s.running
}

func (s *Simulator) Sample() entity.ScanSample {
	return s.sample
}

func (s *Simulator) Tick(time.Time) {
	if !s.running {
		return
	}

	if s.advance {
		s.advance = false
		next := s.sample.CurrentColorIndex + 1
		if next >= len(s.colors) {
			s.running = false
			if s.onComplete != nil {
				s.onComplete()
			}
			return
		}
		s.sample = entity.ScanSample{
			CurrentColorIndex: next,
			PreviousColor:     s.colors[next-1],
		}
	}

	s.sample.ScanPosition += s.step
	if s.sample.ScanPosition >= entity.ScanPositionMax {
		s.sample.ScanPosition = entity.ScanPositionMax
		s.advance = true
	}

	if s.observer != nil {
		s.observer(s.sample)
	}
}
