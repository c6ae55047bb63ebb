// Package event carries everything that happens during a scan session onto a
// single handler goroutine.
package event

import (
	"time"

	"FaceScan/internal/entity"
)

type Kind uint8

const (
	KindUserStart        Kind = 0
	KindRestart          Kind = 1
	KindPollTick         Kind = 2
	KindFrameTick        Kind = 3
	KindDetectionResult  Kind = 4
	KindChunkReady       Kind = 5
	KindRecorderStopped  Kind = 6
	KindGraceElapsed     Kind = 7
	KindMessageReceived  Kind = 8
	KindTimelineComplete Kind = 9
	KindScanComplete     Kind = 10
)

var KindMap = map[Kind]string{
	KindUserStart:        "user_start",
	KindRestart:          "restart",
	KindPollTick:         "poll_tick",
	KindFrameTick:        "frame_tick",
	KindDetectionResult:  "detection_result",
	KindChunkReady:       "chunk_ready",
	KindRecorderStopped:  "recorder_stopped",
	KindGraceElapsed:     "grace_elapsed",
	KindMessageReceived:  "message_received",
	KindTimelineComplete: "timeline_complete",
	KindScanComplete:     "scan_complete",
}

func (k Kind) String() string {
	if name, ok := KindMap[k]; ok {
		return name
	}
	return "unknown"
}

type Event interface {
	Kind() Kind
}

type UserStart struct {
	Viewport entity.Viewport
}

type Restart struct{}

type PollTick struct {
	At time.Time
}

type FrameTick struct {
	At time.Time
}

// DetectionResult is the outcome of one detector call. Box is nil when no
// face was found.
type DetectionResult struct {
	Session string
	Box     *entity.BoundingBox
	Err     error
}

// ChunkReady carries encoded video. Final is set only on the data the
// encoder wrote after its input was closed.
type ChunkReady struct {
	Data  []byte
	At    time.Time
	Final bool
}

type RecorderStopped struct {
	Err error
}

type GraceElapsed struct{}

// MessageReceived is an inbound control message from the remote peer.
type MessageReceived struct {
	Event string
	Data  map[string]any
}

type TimelineComplete struct{}

type ScanComplete struct {
	FinalColorIndex int
}

func (UserStart) Kind() Kind        { return KindUserStart }
func (Restart) Kind() Kind          { return KindRestart }
func (PollTick) Kind() Kind         { return KindPollTick }
func (FrameTick) Kind() Kind        { return KindFrameTick }
func (DetectionResult) Kind() Kind  { return KindDetectionResult }
func (ChunkReady) Kind() Kind       { return KindChunkReady }
func (RecorderStopped) Kind() Kind  { return KindRecorderStopped }
func (GraceElapsed) Kind() Kind     { return KindGraceElapsed }
func (MessageReceived) Kind() Kind  { return KindMessageReceived }
func (TimelineComplete) Kind() Kind { return KindTimelineComplete }
func (ScanComplete) Kind() Kind     { return KindScanComplete }
