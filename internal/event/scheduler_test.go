package event

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type chanPoster chan Event

func (c chanPoster) Post(e Event) { c <- e }

func waitEvent(t *testing.T, c chanPoster) Event {
	t.Helper()
	select {
	case e := <-c:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for scheduled event")
		return nil
	}
}

func TestSchedulerAfter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	posted := make(chanPoster, 4)
	s := NewScheduler(clock, posted)

	s.After(500*time.Millisecond, GraceElapsed{})

	clock.Advance(499 * time.Millisecond)
	select {
	case e := <-posted:
		t.Fatalf("Event %s fired early", e.Kind())
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Millisecond)
	if e := waitEvent(t, posted); e.Kind() != KindGraceElapsed {
		t.Errorf("Expected grace_elapsed, got %s", e.Kind())
	}
}

func TestSchedulerAfterCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	posted := make(chanPoster, 4)
	s := NewScheduler(clock, posted)

	cancel := s.After(time.Second, GraceElapsed{})
	cancel()
	cancel()

	clock.Advance(2 * time.Second)
	select {
	case e := <-posted:
		t.Fatalf("Cancelled event %s was posted", e.Kind())
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSchedulerEvery(t *testing.T) {
	clock := clockwork.NewFakeClock()
	posted := make(chanPoster, 4)
	s := NewScheduler(clock, posted)

	cancel := s.Every(500*time.Millisecond, func(at time.Time) Event {
		return PollTick{At: at}
	})
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()

	for i := 0; i < 3; i++ {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("Ticker was never registered: %v", err)
		}
		clock.Advance(500 * time.Millisecond)

		e := waitEvent(t, posted)
		tick, ok := e.(PollTick)
		if !ok {
			t.Fatalf("Expected PollTick, got %T", e)
		}
		if tick.At.IsZero() {
			t.Error("Expected tick time to be set")
		}
	}
}
