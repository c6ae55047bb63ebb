package scanHandler

import (
	scanService "FaceScan/internal/api/scan/service"
	"FaceScan/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ScanHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	scanService scanService.IScanService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ss scanService.IScanService,
) *ScanHandler {
	return &ScanHandler{
		scanService: ss,
		log:         log,
		validator:   validator,
		middleware:  middleware,
	}
}

func (h *ScanHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	scan := srv.Group("/scan")
	scan.Get("/status", h.Status)
	scan.Post("/start", h.middleware.NewRateLimiter, h.middleware.NewAccessKeyMiddleware, h.StartScan)
	scan.Post("/restart", h.middleware.NewRateLimiter, h.middleware.NewAccessKeyMiddleware, h.Restart)

	scan.Use("/ws", wsMiddleware)
	scan.Get("/ws", websocket.New(h.handleWebSocket))
}
