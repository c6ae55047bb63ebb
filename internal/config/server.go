package config

import (
	scanHandler "FaceScan/internal/api/scan/handler"
	scanService "FaceScan/internal/api/scan/service"
	"FaceScan/internal/capture"
	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/internal/middleware"
	"FaceScan/internal/stage"
	"FaceScan/pkg/detector"
	"FaceScan/pkg/media"
	"FaceScan/pkg/utils"
	websocketPkg "FaceScan/pkg/websocket"
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"time"
)

type ServerOption func(*Server) error

// Server is the composition root: it owns the dispatcher, the scan
// controller with its adapters, and the local control API.
type Server struct {
	engine     *fiber.App
	cfg        *Config
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	clock      clockwork.Clock
	handlers   []handler

	dispatcher *event.Dispatcher
	scheduler  event.Scheduler
	transport  websocketPkg.IWebsocket
	camera     *media.Camera
	recorder   *media.Recorder
	detector   *detector.Worker
	controller *stage.Controller
	viewport   entity.Viewport
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		clock: clockwork.NewRealClock(),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.controller == nil {
		return nil, fmt.Errorf("scan controller is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		if cfg == nil {
			return fmt.Errorf("%w: config is nil", entity.ErrInvalidConfiguration)
		}
		s.cfg = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithClock(clock clockwork.Clock) ServerOption {
	return func(s *Server) error {
		s.clock = clock
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithMiddleware(accessKey string) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, accessKey)
		return nil
	}
}

func WithDispatcher() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before dispatcher")
		}
		s.dispatcher = event.NewDispatcher(s.log)
		s.scheduler = event.NewScheduler(s.clock, s.dispatcher)
		return nil
	}
}

func WithTransport() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.dispatcher == nil {
			return fmt.Errorf("config and dispatcher must be initialized before transport")
		}
		s.transport = websocketPkg.New(websocketPkg.Config{
			URL:    s.cfg.BackendURL,
			APIKey: s.cfg.APIKey,
		}, s.log, s.dispatcher)
		return nil
	}
}

func WithMedia() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.dispatcher == nil || s.utils == nil {
			return fmt.Errorf("config, dispatcher and utils must be initialized before media")
		}
		s.camera = media.NewCamera(media.CameraConfig{
			FFmpegPath:  s.cfg.FFmpegPath,
			InputFormat: s.cfg.CameraInputFormat,
			Device:      s.cfg.CameraDevice,
			FrameRate:   s.cfg.CameraFrameRate,
			Width:       int(s.cfg.Canvas.Width),
			Height:      int(s.cfg.Canvas.Height),
		}, s.log, s.utils)
		s.recorder = media.NewRecorder(media.RecorderConfig{
			FFmpegPath:    s.cfg.FFmpegPath,
			FrameRate:     s.cfg.CameraFrameRate,
			Bitrate:       media.DefaultBitrate,
			FlushInterval: s.cfg.FlushInterval,
		}, s.camera, s.dispatcher, s.clock, s.log)
		return nil
	}
}

func WithDetector() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before detector")
		}
		s.detector = detector.New(detector.Config{Command: s.cfg.DetectorCmd}, s.log)
		return nil
	}
}

// WithScanController builds the stage controller. overlays maps each
// viewport to its overlay settings.
func WithScanController(viewport entity.Viewport, overlays map[entity.Viewport]stage.OverlaySettings) ServerOption {
	return func(s *Server) error {
		if s.cfg == nil || s.dispatcher == nil || s.transport == nil || s.camera == nil || s.detector == nil {
			return fmt.Errorf("config, dispatcher, transport, media and detector must be initialized before the scan controller")
		}

		newCapture := func() stage.Capture {
			return capture.New(capture.Config{
				Transport:  s.transport,
				Recorder:   s.recorder,
				Prober:     s.recorder,
				Scheduler:  s.scheduler,
				Poster:     s.dispatcher,
				Clock:      s.clock,
				Logger:     s.log,
				Colors:     entity.ScanColors,
				GraceDelay: s.cfg.GraceDelay,
			})
		}

		s.viewport = viewport
		s.controller = stage.New(stage.Config{
			Canvas:           s.cfg.Canvas,
			Overlays:         overlays,
			Viewport:         viewport,
			Mode:             s.cfg.TimelineMode,
			Colors:           entity.ScanColors,
			SkipPositionGate: s.cfg.SkipPositionGate,
			PollInterval:     s.cfg.FaceCheckInterval,
			FrameInterval:    s.cfg.FrameInterval,
			Camera:           s.camera,
			Detector:         s.detector,
			Prober:           s.recorder,
			NewCapture:       newCapture,
			Scheduler:        s.scheduler,
			Poster:           s.dispatcher,
			Clock:            s.clock,
			Logger:           s.log,
			Utils:            s.utils,
		})
		s.controller.Register(s.dispatcher)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	scanServices := scanService.New(s.log, s.dispatcher, s.controller.Board(), s.viewport)
	scanHandlers := scanHandler.New(s.log, s.validator, s.middleware, scanServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, scanHandlers)
}

func (s *Server) Board() *stage.Board {
	return s.controller.Board()
}

func (s *Server) Post(e event.Event) {
	s.dispatcher.Post(e)
}

func (s *Server) Viewport() entity.Viewport {
	return s.viewport
}

// Run serves until ctx is done, then shuts everything down in order: the
// HTTP listener, the dispatcher, the controller and finally the adapters.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		if err := s.dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("Dispatcher stopped: %v", err)
		}
	}()

	if s.cfg.BackendURL != "" {
		go func() {
			if err := s.transport.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Errorf("Transport stopped: %v", err)
			}
		}()
	} else {
		s.log.Warn("BACKEND_URL not set, video chunks will not be delivered")
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- s.engine.Listen(fmt.Sprintf(":%s", s.cfg.Port))
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-listenErr:
	}
	cancel()

	if shutdownErr := s.engine.ShutdownWithTimeout(5 * time.Second); shutdownErr != nil {
		s.log.Errorf("Error shutting down HTTP server: %v", shutdownErr)
	}

	<-dispatched
	s.controller.Shutdown()
	s.detector.Close()
	s.transport.Close()

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Scanner is Healthy!",
			"stage":   s.controller.Board().Current().Stage.String(),
		})
	})
}
