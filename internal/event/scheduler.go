package event

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cancel stops a scheduled event. Calling it more than once is a no-op.
type Cancel func()

type Scheduler interface {
	// Every posts tick(t) on each interval until cancelled.
	Every(interval time.Duration, tick func(time.Time) Event) Cancel
	// After posts e once after delay unless cancelled first.
	After(delay time.Duration, e Event) Cancel
}

type clockScheduler struct {
	clock  clockwork.Clock
	poster Poster
}

func NewScheduler(clock clockwork.Clock, poster Poster) Scheduler {
	return &clockScheduler{
		clock:  clock,
		poster: poster,
	}
}

func (s *clockScheduler) Every(interval time.Duration, tick func(time.Time) Event) Cancel {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case t := <-ticker.Chan():
				select {
				case <-done:
					return
				default:
				}
				s.poster.Post(tick(t))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

func (s *clockScheduler) After(delay time.Duration, e Event) Cancel {
	var (
		mu        sync.Mutex
		cancelled bool
	)

	timer := s.clock.AfterFunc(delay, func() {
		mu.Lock()
		defer mu.Unlock()
		if cancelled {
			return
		}
		s.poster.Post(e)
	})

	return func() {
		mu.Lock()
		defer mu.Unlock()
		cancelled = true
		timer.Stop()
	}
}
