package stage

import (
	"sync"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/evaluator"
)

// Snapshot is a read-only view of the session. It may be one tick stale.
type Snapshot struct {
	SessionID            string                    `json:"sessionId"`
	Stage                entity.VerificationStage  `json:"stage"`
	Viewport             string                    `json:"viewport"`
	Status               entity.FacePositionStatus `json:"status"`
	FaceBox              *entity.BoundingBox       `json:"faceBox,omitempty"`
	IsFaceInsideBoundary bool                      `json:"isFaceInsideBoundary"`
	AlignmentProgress    float64                   `json:"alignmentProgress"`
	Guidance             evaluator.Guidance        `json:"guidance"`
	Overlay              *OverlayView              `json:"overlay,omitempty"`
	Scan                 entity.ScanSample         `json:"scan"`
	CurrentColor         string                    `json:"currentColor"`
	UserID               string                    `json:"userId,omitempty"`
	ServerAcknowledged   bool                      `json:"serverAcknowledged"`
	Error                string                    `json:"error,omitempty"`
	Retryable            bool                      `json:"retryable"`
	UpdatedAt            time.Time                 `json:"updatedAt"`
}

// Board holds the latest snapshot and fans it out to subscribers. Slow
// subscribers only ever see the newest snapshot.
type Board struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextID  int
}

func NewBoard() *Board {
	return &Board{
		subs: make(map[int]chan Snapshot),
	}
}

func (b *Board) Publish(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = s
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (b *Board) Current() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.current
}

// Subscribe returns a channel that receives the current snapshot and every
// later one, and a func that unsubscribes and closes it.
func (b *Board) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Snapshot, 1)
	ch <- b.current
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}
