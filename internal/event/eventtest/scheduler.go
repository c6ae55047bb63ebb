// Package eventtest provides a scheduler that only fires when told to.
package eventtest

import (
	"sort"
	"sync"
	"time"

	"FaceScan/internal/event"
)

type pending struct {
	id        int
	delay     time.Duration
	interval  time.Duration
	e         event.Event
	tick      func(time.Time) event.Event
	cancelled bool
}

// Scheduler records scheduled events and posts them when Fire or FireAfter
// is called.
type Scheduler struct {
	mu      sync.Mutex
	poster  event.Poster
	nextID  int
	pending []*pending
}

func NewScheduler(poster event.Poster) *Scheduler {
	return &Scheduler{poster: poster}
}

func (s *Scheduler) Every(interval time.Duration, tick func(time.Time) event.Event) event.Cancel {
	return s.add(&pending{interval: interval, tick: tick})
}

func (s *Scheduler) After(delay time.Duration, e event.Event) event.Cancel {
	return s.add(&pending{delay: delay, e: e})
}

func (s *Scheduler) add(p *pending) event.Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.id = s.nextID
	s.pending = append(s.pending, p)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		p.cancelled = true
	}
}

// ActiveTickers returns the intervals of every periodic schedule that has not
// been cancelled.
func (s *Scheduler) ActiveTickers() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []time.Duration
	for _, p := range s.pending {
		if p.tick != nil && !p.cancelled {
			out = append(out, p.interval)
		}
	}
	return out
}

// PendingTimers returns the delays of one-shot schedules not yet fired.
func (s *Scheduler) PendingTimers() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []time.Duration
	for _, p := range s.pending {
		if p.tick == nil && !p.cancelled {
			out = append(out, p.delay)
		}
	}
	return out
}

// Tick posts one tick for every active periodic schedule with the given
// interval and reports how many were posted.
func (s *Scheduler) Tick(interval time.Duration, at time.Time) int {
	s.mu.Lock()
	var ticks []func(time.Time) event.Event
	for _, p := range s.pending {
		if p.tick != nil && !p.cancelled && p.interval == interval {
			ticks = append(ticks, p.tick)
		}
	}
	s.mu.Unlock()

	for _, tick := range ticks {
		s.poster.Post(tick(at))
	}
	return len(ticks)
}

// FireTimers posts every pending one-shot event in the order it was
// scheduled, shortest delay first.
func (s *Scheduler) FireTimers() int {
	s.mu.Lock()
	var due []*pending
	for _, p := range s.pending {
		if p.tick == nil && !p.cancelled {
			due = append(due, p)
			p.cancelled = true
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].delay < due[j].delay
	})
	for _, p := range due {
		s.poster.Post(p.e)
	}
	return len(due)
}
