package event

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherPreservesPostOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var got []Kind
	record := func(e Event) { got = append(got, e.Kind()) }
	d.Subscribe(KindPollTick, record)
	d.Subscribe(KindFrameTick, record)
	d.Subscribe(KindGraceElapsed, record)

	d.Post(PollTick{})
	d.Post(FrameTick{})
	d.Post(GraceElapsed{})

	if n := d.Drain(); n != 3 {
		t.Fatalf("Expected 3 events delivered, got %d", n)
	}

	want := []Kind{KindPollTick, KindFrameTick, KindGraceElapsed}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDispatcherDeliversEventsPostedByHandlers(t *testing.T) {
	d := NewDispatcher(nil)

	var order []string
	d.Subscribe(KindTimelineComplete, func(Event) {
		order = append(order, "timeline")
		d.Post(ScanComplete{})
		order = append(order, "timeline-done")
	})
	d.Subscribe(KindScanComplete, func(Event) {
		order = append(order, "scan")
	})

	d.Post(TimelineComplete{})
	d.Drain()

	want := []string{"timeline", "timeline-done", "scan"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestDispatcherUnsubscribedKindIsDropped(t *testing.T) {
	d := NewDispatcher(nil)
	d.Post(Restart{})

	if n := d.Drain(); n != 1 {
		t.Errorf("Expected the event to be consumed, got %d", n)
	}
	if n := d.Drain(); n != 0 {
		t.Errorf("Expected an empty queue, got %d", n)
	}
}

func TestDispatcherRunStopsOnCancel(t *testing.T) {
	d := NewDispatcher(nil)

	received := make(chan struct{}, 1)
	d.Subscribe(KindUserStart, func(Event) { received <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	go d.Post(UserStart{})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event delivery")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestKindString(t *testing.T) {
	if KindChunkReady.String() != "chunk_ready" {
		t.Errorf("Unexpected name %q", KindChunkReady.String())
	}
	if Kind(200).String() != "unknown" {
		t.Errorf("Unexpected name for unknown kind %q", Kind(200).String())
	}
}
