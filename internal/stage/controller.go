package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FaceScan/internal/capture"
	"FaceScan/internal/entity"
	"FaceScan/internal/evaluator"
	"FaceScan/internal/event"
	"FaceScan/internal/geometry"
	"FaceScan/internal/timeline"
	"FaceScan/pkg/log"
	"FaceScan/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Canvas   entity.Canvas
	Overlays map[entity.Viewport]OverlaySettings
	Viewport entity.Viewport
	Mode     entity.TimelineMode
	Colors   []string

	// SkipPositionGate moves from moving-closer to scanning without any
	// face position checks.
	SkipPositionGate bool

	PollInterval  time.Duration
	FrameInterval time.Duration

	Camera     Camera
	Detector   Detector
	Prober     capture.MimeProber
	NewCapture func() Capture

	Scheduler event.Scheduler
	Poster    event.Poster
	Board     *Board
	Clock     clockwork.Clock
	Logger    *logrus.Logger
	Utils     utils.IUtils
}

type Controller struct {
	cfg Config
	log *logrus.Logger

	session  entity.ScanSession
	ctx      context.Context
	cancel   context.CancelFunc
	stage    entity.VerificationStage
	settings OverlaySettings

	overlay      geometry.Overlay
	overlayArmed bool
	evaluation   evaluator.Evaluation
	faceBox      *entity.BoundingBox
	progress     float64
	inFlight     bool

	capture  Capture
	timeline timeline.Timeline
	sample   entity.ScanSample

	cancelPoll   event.Cancel
	cancelFrames event.Cancel

	releasePending bool
	userID         string
	acknowledged   bool
	lastErr        error
	retryable      bool
}

func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Utils == nil {
		cfg.Utils = utils.New()
	}
	if cfg.Board == nil {
		cfg.Board = NewBoard()
	}
	if cfg.Colors == nil {
		cfg.Colors = entity.ScanColors
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = evaluator.FaceCheckInterval
	}
	if cfg.FrameInterval == 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}

	c := &Controller{
		cfg: cfg,
		log: cfg.Logger,
	}
	c.newSession()

	return c
}

// Register subscribes the controller to every event it handles.
func (c *Controller) Register(d *event.Dispatcher) {
	for kind := range event.KindMap {
		d.Subscribe(kind, c.Handle)
	}
}

func (c *Controller) Board() *Board {
	return c.cfg.Board
}

func (c *Controller) Stage() entity.VerificationStage {
	return c.stage
}

func (c *Controller) Handle(e event.Event) {
	switch e := e.(type) {
	case event.UserStart:
		c.handleUserStart(e)
	case event.Restart:
		c.handleRestart()
	case event.PollTick:
		c.handlePollTick()
	case event.DetectionResult:
		c.handleDetection(e)
	case event.FrameTick:
		c.handleFrameTick(e)
	case event.ChunkReady:
		c.capture.HandleChunk(e)
	case event.RecorderStopped:
		c.capture.HandleStopped(e)
	case event.GraceElapsed:
		c.capture.HandleGraceElapsed()
	case event.MessageReceived:
		c.handleMessage(e)
	case event.TimelineComplete:
		c.handleTimelineComplete()
	case event.ScanComplete:
		c.handleScanComplete()
	}
}

// Shutdown tears the session down and releases the camera.
func (c *Controller) Shutdown() {
	c.teardown()
	c.releaseCamera()
}

func (c *Controller) newSession() {
	now := c.cfg.Clock.Now()
	id, err := c.cfg.Utils.NewULIDFromTimestamp(now)
	if err != nil {
		id = fmt.Sprintf("session-%d", now.UnixNano())
	}

	c.session = entity.ScanSession{
		ID:        id,
		Viewport:  c.cfg.Viewport,
		StartedAt: now,
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.stage = entity.StageInitial
	c.settings = c.settingsFor(c.cfg.Viewport)
	c.overlay = geometry.Overlay{Shape: c.settings.Shape, BoundaryScale: 1}
	c.overlayArmed = false
	c.evaluation = evaluator.Evaluation{}
	c.faceBox = nil
	c.progress = 0
	c.inFlight = false
	c.sample = entity.InitialScanSample()
	c.releasePending = false
	c.acknowledged = false
	c.lastErr = nil
	c.retryable = false

	if c.cfg.NewCapture != nil {
		c.capture = c.cfg.NewCapture()
	} else {
		c.capture = nopCapture{}
	}
	c.timeline = timeline.New(c.cfg.Mode, c.cfg.Colors, c.observeSample, c.timelineDone)

	c.publish()
}

func (c *Controller) settingsFor(viewport entity.Viewport) OverlaySettings {
	if settings, ok := c.cfg.Overlays[viewport]; ok {
		return settings
	}
	return DefaultOverlaySettings()
}

func (c *Controller) fields() log.Fields {
	return log.Fields{
		"session_id": c.session.ID,
		"stage":      c.stage.String(),
	}
}

func (c *Controller) handleUserStart(e event.UserStart) {
	if c.stage != entity.StageInitial {
		c.log.WithFields(c.fields()).Debug("[stage.handleUserStart] already started")
		return
	}

	c.lastErr = nil
	c.retryable = false

	if err := c.checkResources(); err != nil {
		c.fail(err)
		return
	}

	c.session.Viewport = e.Viewport
	c.settings = c.settingsFor(e.Viewport)
	if err := c.armOverlay(); err != nil {
		c.fail(err)
		return
	}

	c.stage = entity.StageMovingCloser
	c.log.WithFields(c.fields()).Info("[stage.handleUserStart] positioning started")

	if c.cfg.SkipPositionGate {
		c.enterScanning()
		return
	}

	if !c.settings.ShowOverlayOnly && c.cfg.Scheduler != nil {
		c.cancelPoll = c.cfg.Scheduler.Every(c.cfg.PollInterval, func(t time.Time) event.Event {
			return event.PollTick{At: t}
		})
	}
	c.publish()
}

func (c *Controller) checkResources() error {
	if c.cfg.Camera == nil {
		return entity.ErrCameraUnavailable
	}
	if err := c.cfg.Camera.Ready(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCameraUnavailable, err)
	}

	if !c.cfg.SkipPositionGate {
		if c.cfg.Detector == nil {
			return entity.ErrDetectorUnavailable
		}
		if err := c.cfg.Detector.Ready(); err != nil {
			if errors.Is(err, entity.ErrResourceUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
		}
	}

	if _, err := capture.SelectMimeType(c.cfg.Prober); err != nil {
		return err
	}
	return nil
}

func (c *Controller) armOverlay() error {
	scale := 1.0
	if c.settings.DynamicSize && !c.settings.ShowOverlayOnly {
		scale = c.cfg.Utils.RandomFromInterval(MinDynamicScale, MaxDynamicScale)
	}

	overlay := geometry.Overlay{Shape: c.settings.Shape, BoundaryScale: scale}
	if _, err := geometry.Footprint(overlay, c.cfg.Canvas); err != nil {
		return err
	}

	c.overlay = overlay
	c.overlayArmed = true
	return nil
}

func (c *Controller) handlePollTick() {
	if c.stage != entity.StageMovingCloser || c.inFlight {
		return
	}
	c.inFlight = true

	ctx := c.ctx
	session := c.session.ID
	camera := c.cfg.Camera
	detector := c.cfg.Detector
	poster := c.cfg.Poster

	go func() {
		result := event.DetectionResult{Session: session}
		frame, err := camera.Screenshot()
		if err != nil {
			result.Err = err
		} else {
			result.Box, result.Err = detector.Detect(ctx, frame)
		}
		if ctx.Err() != nil {
			return
		}
		poster.Post(result)
	}()
}

func (c *Controller) handleDetection(e event.DetectionResult) {
	if e.Session != c.session.ID {
		return
	}
	c.inFlight = false

	if c.stage != entity.StageMovingCloser {
		return
	}

	if e.Err != nil {
		c.log.WithFields(c.fields()).WithField("error", e.Err.Error()).
			Warn("[stage.handleDetection] detection failed")
		return
	}

	evaluation, err := evaluator.Evaluate(e.Box, c.overlay, c.cfg.Canvas)
	if err != nil {
		c.fail(err)
		return
	}

	c.evaluation = evaluation
	c.faceBox = e.Box
	if evaluation.HasFace {
		c.progress = evaluator.AlignmentProgress(evaluation.RawSizeRatio())
	}

	if evaluator.ReadyToScan(evaluation, c.progress) {
		c.log.WithFields(c.fields()).WithField("progress", c.progress).
			Info("[stage.handleDetection] face aligned, starting scan")
		c.enterScanning()
		return
	}
	c.publish()
}

func (c *Controller) enterScanning() {
	c.stopPoll()

	if err := c.capture.Start(); err != nil {
		c.teardown()
		c.newSession()
		c.fail(err)
		return
	}

	c.stage = entity.StageScanning
	c.timeline.Start()
	c.sample = c.timeline.Sample()
	if c.cfg.Scheduler != nil {
		c.cancelFrames = c.cfg.Scheduler.Every(c.cfg.FrameInterval, func(t time.Time) event.Event {
			return event.FrameTick{At: t}
		})
	}

	c.log.WithFields(c.fields()).WithField("mode", c.cfg.Mode.String()).
		Info("[stage.enterScanning] scan started")
	c.publish()
}

func (c *Controller) handleFrameTick(e event.FrameTick) {
	if c.stage != entity.StageScanning {
		return
	}
	c.timeline.Tick(e.At)
	c.publish()
}

func (c *Controller) observeSample(s entity.ScanSample) {
	c.sample = s
	c.capture.ObserveSample(s)
}

func (c *Controller) timelineDone() {
	if c.cfg.Poster != nil {
		c.cfg.Poster.Post(event.TimelineComplete{})
	}
}

func (c *Controller) handleTimelineComplete() {
	if c.stage != entity.StageScanning {
		return
	}
	c.capture.Stop()
	c.complete()
}

func (c *Controller) handleScanComplete() {
	if c.releasePending {
		c.releasePending = false
		c.releaseCamera()
	}
	if c.stage != entity.StageScanning {
		return
	}
	c.complete()
}

func (c *Controller) complete() {
	c.stopFrames()
	c.timeline.Stop()
	c.stage = entity.StageCompleted

	if c.capture.Done() {
		c.releaseCamera()
	} else {
		c.releasePending = true
	}

	c.log.WithFields(c.fields()).Info("[stage.complete] verification complete")
	c.publish()
}

func (c *Controller) handleMessage(e event.MessageReceived) {
	switch e.Event {
	case entity.EventUserID:
		if id, ok := e.Data["user_id"].(string); ok {
			c.userID = id
			c.log.WithFields(c.fields()).WithField("user_id", id).
				Info("[stage.handleMessage] user id assigned")
		}
	case entity.EventVideoProcessed:
		c.acknowledged = true
		c.log.WithFields(c.fields()).Info("[stage.handleMessage] video processed by server")
	default:
		c.log.WithFields(c.fields()).WithField("event", e.Event).
			Debug("[stage.handleMessage] unhandled server event")
		return
	}
	c.publish()
}

func (c *Controller) handleRestart() {
	c.log.WithFields(c.fields()).Info("[stage.handleRestart] restarting session")
	c.teardown()
	c.newSession()
}

func (c *Controller) teardown() {
	c.cancel()
	c.stopPoll()
	c.stopFrames()
	c.timeline.Stop()
	c.capture.Close()
}

func (c *Controller) stopPoll() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
}

func (c *Controller) stopFrames() {
	if c.cancelFrames != nil {
		c.cancelFrames()
		c.cancelFrames = nil
	}
}

func (c *Controller) releaseCamera() {
	if c.cfg.Camera == nil {
		return
	}
	if err := c.cfg.Camera.Release(); err != nil {
		c.log.WithFields(c.fields()).WithField("error", err.Error()).
			Warn("[stage.releaseCamera] failed to release camera")
	}
}

// fail records err for the snapshot. Resource errors can be retried by
// starting again; configuration errors cannot.
func (c *Controller) fail(err error) {
	c.lastErr = err
	c.retryable = errors.Is(err, entity.ErrResourceUnavailable)

	fields := c.fields()
	fields["error"] = err.Error()
	fields["retryable"] = c.retryable
	c.log.WithFields(fields).Error("[stage.fail] session error")

	c.publish()
}

func (c *Controller) Snapshot() Snapshot {
	evaluation := c.evaluation
	snapshot := Snapshot{
		SessionID:            c.session.ID,
		Stage:                c.stage,
		Viewport:             c.session.Viewport.String(),
		Status:               evaluation.Status,
		FaceBox:              c.faceBox,
		IsFaceInsideBoundary: evaluation.IsFaceInsideBoundary,
		AlignmentProgress:    c.progress,
		Guidance:             evaluator.GuidanceFor(c.stage, evaluation, c.progress),
		Scan:                 c.sample,
		UserID:               c.userID,
		ServerAcknowledged:   c.acknowledged,
		Retryable:            c.retryable,
		UpdatedAt:            c.cfg.Clock.Now(),
	}

	if c.stage == entity.StageScanning {
		snapshot.CurrentColor = entity.ColorAt(c.sample.CurrentColorIndex)
	}
	if c.lastErr != nil {
		snapshot.Error = c.lastErr.Error()
	}

	if c.overlayArmed && c.stage != entity.StageCompleted {
		if footprint, err := geometry.Footprint(c.overlay, c.cfg.Canvas); err == nil {
			insideOrAligned := evaluation.IsFaceInsideBoundary || evaluation.Status.IsFaceAlignedWithOverlay
			snapshot.Overlay = &OverlayView{
				Shape:         c.overlay.Shape.Name(),
				X:             footprint.Origin.X,
				Y:             footprint.Origin.Y,
				Width:         footprint.Size.Width,
				Height:        footprint.Size.Height,
				BoundaryScale: c.overlay.BoundaryScale,
				BorderColor:   borderColor(c.settings, insideOrAligned),
				BorderWidth:   c.settings.BorderWidth,
			}
		}
	}

	return snapshot
}

func (c *Controller) publish() {
	c.cfg.Board.Publish(c.Snapshot())
}

type nopCapture struct{}

func (nopCapture) Start() error                        { return entity.ErrCaptureUnavailable }
func (nopCapture) Stop()                               {}
func (nopCapture) Close()                              {}
func (nopCapture) Done() bool                          { return true }
func (nopCapture) ObserveSample(entity.ScanSample)     {}
func (nopCapture) HandleChunk(event.ChunkReady)        {}
func (nopCapture) HandleStopped(event.RecorderStopped) {}
func (nopCapture) HandleGraceElapsed()                 {}
