package event

import (
	"context"
	"sync"

	"FaceScan/pkg/log"

	"github.com/sirupsen/logrus"
)

type Handler func(Event)

// Poster is the write side of the dispatcher. Post never blocks, so it is
// safe to call from handlers and from producer goroutines alike.
type Poster interface {
	Post(e Event)
}

type Dispatcher struct {
	mu       sync.Mutex
	queue    []Event
	wake     chan struct{}
	handlers map[Kind][]Handler
	log      *logrus.Logger
}

func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		wake:     make(chan struct{}, 1),
		handlers: make(map[Kind][]Handler),
		log:      logger,
	}
}

func (d *Dispatcher) Subscribe(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[kind] = append(d.handlers[kind], h)
}

func (d *Dispatcher) Post(e Event) {
	d.mu.Lock()
	d.queue = append(d.queue, e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run delivers events in post order until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		d.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// Drain delivers queued events, including any posted by the handlers
// themselves, until the queue is empty. It returns the number delivered.
func (d *Dispatcher) Drain() int {
	delivered := 0
	for {
		e, ok := d.next()
		if !ok {
			return delivered
		}
		d.deliver(e)
		delivered++
	}
}

func (d *Dispatcher) next() (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil, false
	}
	e := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return e, true
}

func (d *Dispatcher) deliver(e Event) {
	d.mu.Lock()
	handlers := d.handlers[e.Kind()]
	d.mu.Unlock()

	if len(handlers) == 0 {
		if d.log != nil && e.Kind() != KindFrameTick {
			d.log.WithFields(log.Fields{
				"event": e.Kind().String(),
			}).Debug("[event.Dispatcher] no handler subscribed")
		}
		return
	}

	for _, h := range handlers {
		h(e)
	}
}
