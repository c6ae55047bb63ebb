// Package capture records the scan, streams it to the backend in chunks and
// reports each color as it is captured.
package capture

import (
	"errors"
	"fmt"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/pkg/log"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Transport delivers messages to the remote peer. Sends while the transport
// is not open fail with entity.ErrTransportNotReady.
type Transport interface {
	IsOpen() bool
	SendControl(event string, data any) error
	// SendBinary sends the metadata frame and the payload frame back to back.
	SendBinary(event string, data any, payload []byte) error
}

// Recorder encodes the camera stream. Encoded data is posted as
// event.ChunkReady and the end of recording as event.RecorderStopped.
type Recorder interface {
	Start(mimeType string) error
	Stop() error
	Recording() bool
}

type MimeProber interface {
	Supports(mimeType string) bool
}

type state uint8

const (
	stateIdle state = iota
	stateRecording
	stateStopping
	stateFinalizing
	stateDone
)

var stateMap = map[state]string{
	stateIdle:       "idle",
	stateRecording:  "recording",
	stateStopping:   "stopping",
	stateFinalizing: "finalizing",
	stateDone:       "done",
}

func (s state) String() string {
	return stateMap[s]
}

type Config struct {
	Transport  Transport
	Recorder   Recorder
	Prober     MimeProber
	Scheduler  event.Scheduler
	Poster     event.Poster
	Clock      clockwork.Clock
	Logger     *logrus.Logger
	Colors     []string
	GraceDelay time.Duration
}

type Controller struct {
	transport  Transport
	recorder   Recorder
	prober     MimeProber
	scheduler  event.Scheduler
	poster     event.Poster
	clock      clockwork.Clock
	log        *logrus.Logger
	colors     []string
	graceDelay time.Duration

	state      state
	mimeType   string
	videoStart time.Time
	chunkStart time.Time
	sequence   int

	lastIndex  int
	lastPos    float64
	fired      map[int]bool
	finalIndex int

	cancelGrace event.Cancel
}

func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Colors == nil {
		cfg.Colors = entity.ScanColors
	}

	return &Controller{
		transport:  cfg.Transport,
		recorder:   cfg.Recorder,
		prober:     cfg.Prober,
		scheduler:  cfg.Scheduler,
		poster:     cfg.Poster,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		colors:     cfg.Colors,
		graceDelay: cfg.GraceDelay,
		lastIndex:  -1,
		fired:      make(map[int]bool),
	}
}

// SelectMimeType returns the first preferred container the prober accepts.
func SelectMimeType(prober MimeProber) (string, error) {
	if prober == nil {
		return "", entity.ErrCaptureUnavailable
	}
	for _, mimeType := range entity.PreferredMimeTypes {
		if prober.Supports(mimeType) {
			return mimeType, nil
		}
	}
	return "", fmt.Errorf("%w: no supported container", entity.ErrCaptureUnavailable)
}

// Start begins recording and announces the video to the peer. Calling Start
// on a controller that already started is a no-op.
func (c *Controller) Start() error {
	if c.state != stateIdle {
		return nil
	}
	if c.recorder == nil {
		return entity.ErrCaptureUnavailable
	}

	mimeType, err := SelectMimeType(c.prober)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	c.mimeType = mimeType
	c.videoStart = now
	c.chunkStart = now
	c.sequence = 0

	if err := c.recorder.Start(mimeType); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCaptureUnavailable, err)
	}

	c.state = stateRecording
	c.sendControl(entity.EventVideoStart, entity.VideoStart{
		Timestamp: now.UnixMilli(),
		MimeType:  mimeType,
	})
	c.log.WithFields(log.Fields{
		"mime_type": mimeType,
	}).Info("[capture.Start] recording started")

	return nil
}

func (c *Controller) MimeType() string {
	return c.mimeType
}

// Done reports whether video_end has been sent.
func (c *Controller) Done() bool {
	return c.state == stateDone
}

// ObserveSample reports a color to the peer the first time its scan position
// reaches the bottom of the band. Reaching the bottom of the last color
// stops the capture.
func (c *Controller) ObserveSample(s entity.ScanSample) {
	if c.state != stateRecording {
		return
	}

	index := s.CurrentColorIndex
	reached := s.ScanPosition >= entity.ColorChangeThreshold &&
		(index != c.lastIndex || c.lastPos < entity.ColorChangeThreshold)

	c.lastIndex = index
	c.lastPos = s.ScanPosition
	c.finalIndex = index

	if !reached || c.fired[index] {
		return
	}
	c.fired[index] = true

	previous := entity.Transparent
	if index > 0 {
		previous = entity.ColorAt(index - 1)
	}
	isLast := index == len(c.colors)-1

	c.sendControl(entity.EventColorChange, entity.ColorChangeEvent{
		PreviousColor:  previous,
		NewColor:       entity.ColorAt(index),
		Timestamp:      c.clock.Now().UnixMilli(),
		VideoStartTime: c.videoStart.UnixMilli(),
		ColorIndex:     index,
		IsLastColor:    isLast,
	})

	if isLast {
		c.log.Info("[capture.ObserveSample] final color reached, stopping capture")
		c.Stop()
	}
}

// Stop ends the recording. The next encoded chunk is sent as the final one,
// followed after the grace delay by video_end and a ScanComplete event.
// Stop may be called any number of times.
func (c *Controller) Stop() {
	switch c.state {
	case stateIdle:
		c.state = stateDone
		return
	case stateRecording:
	default:
		return
	}

	if c.recorder == nil || !c.recorder.Recording() {
		c.finish()
		return
	}

	c.state = stateStopping
	if err := c.recorder.Stop(); err != nil {
		c.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Warn("[capture.Stop] recorder did not stop cleanly")
		c.finish()
	}
}

func (c *Controller) HandleChunk(e event.ChunkReady) {
	if len(e.Data) == 0 {
		return
	}

	at := e.At
	if at.IsZero() {
		at = c.clock.Now()
	}

	switch {
	case c.state == stateRecording, c.state == stateStopping && !e.Final:
		// A periodic flush may land after Stop; the tail is still to come.
		c.sendChunk(e.Data, at, false)
	case c.state == stateStopping:
		c.sendChunk(e.Data, at, true)
		c.beginGrace()
	default:
		c.log.WithFields(log.Fields{
			"state": c.state.String(),
			"bytes": len(e.Data),
		}).Debug("[capture.HandleChunk] chunk after final chunk dropped")
	}
}

func (c *Controller) HandleStopped(e event.RecorderStopped) {
	if e.Err != nil {
		c.log.WithFields(log.Fields{
			"error": e.Err.Error(),
			"state": c.state.String(),
		}).Warn("[capture.HandleStopped] recorder exited with error")
	}

	// Stopped without handing over any final data.
	if c.state == stateStopping {
		c.finish()
	}
}

func (c *Controller) HandleGraceElapsed() {
	if c.state != stateFinalizing {
		return
	}
	c.finish()
}

// Close cancels a pending grace timer and stops the recorder without
// sending anything further.
func (c *Controller) Close() {
	if c.cancelGrace != nil {
		c.cancelGrace()
	}
	if c.recorder != nil && c.recorder.Recording() {
		if err := c.recorder.Stop(); err != nil {
			c.log.Debugf("Error stopping recorder on close: %v", err)
		}
	}
	c.state = stateDone
}

func (c *Controller) beginGrace() {
	c.state = stateFinalizing
	if c.scheduler == nil {
		c.finish()
		return
	}
	c.cancelGrace = c.scheduler.After(c.graceDelay, event.GraceElapsed{})
}

func (c *Controller) finish() {
	c.sendControl(entity.EventVideoEnd, entity.VideoEnd{
		FinalColorIndex: c.finalIndex,
	})
	c.state = stateDone

	c.log.WithFields(log.Fields{
		"final_color_index": c.finalIndex,
		"chunks":            c.sequence,
	}).Info("[capture.finish] scan complete")

	if c.poster != nil {
		c.poster.Post(event.ScanComplete{FinalColorIndex: c.finalIndex})
	}
}

func (c *Controller) sendChunk(data []byte, at time.Time, final bool) {
	start := c.chunkStart
	c.chunkStart = at

	if c.transport == nil || !c.transport.IsOpen() {
		c.log.WithFields(log.Fields{
			"bytes": len(data),
			"final": final,
		}).Debug("[capture.sendChunk] transport not open, chunk dropped")
		return
	}

	chunk := entity.VideoChunk{
		StartTime: start.UnixMilli(),
		EndTime:   at.UnixMilli(),
		Sequence:  c.sequence,
		MimeType:  c.mimeType,
		IsFinal:   final,
		Payload:   data,
	}

	if err := c.transport.SendBinary(entity.EventVideoChunk, chunk, data); err != nil {
		c.log.WithFields(log.Fields{
			"error":    err.Error(),
			"sequence": chunk.Sequence,
		}).Warn("[capture.sendChunk] failed to send chunk")
		return
	}
	c.sequence++
}

func (c *Controller) sendControl(name string, data any) {
	if c.transport == nil {
		return
	}
	if err := c.transport.SendControl(name, data); err != nil {
		if errors.Is(err, entity.ErrTransportNotReady) {
			c.log.WithFields(log.Fields{
				"event": name,
			}).Debug("[capture.sendControl] transport not open, message dropped")
			return
		}
		c.log.WithFields(log.Fields{
			"event": name,
			"error": err.Error(),
		}).Warn("[capture.sendControl] failed to send message")
	}
}
