package scanHandler

import (
	"FaceScan/internal/api/scan"
	"FaceScan/internal/stage"
	contextPkg "FaceScan/pkg/context"
	"FaceScan/pkg/handlerUtil"
	"FaceScan/pkg/log"
	"context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"time"
)

const writeTimeout = 5 * time.Second

func (h *ScanHandler) Status(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, scan.StatusResponse{
		Data: h.scanService.Status(),
	})
}

func (h *ScanHandler) StartScan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req scan.StartRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, scan.ErrBadRequest, ctx.Path(), "parse_request_body")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	snapshot, err := h.scanService.Start(c, req.Viewport)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_scan")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"session_id": snapshot.SessionID,
	}).Debug("Scan start accepted")

	return errHandler.HandleSuccess(ctx, fiber.StatusAccepted, scan.ActionResponse{
		Message:   "Scan start requested",
		SessionID: snapshot.SessionID,
		Stage:     snapshot.Stage.String(),
	})
}

func (h *ScanHandler) Restart(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	snapshot, err := h.scanService.Restart(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "restart_scan")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusAccepted, scan.ActionResponse{
		Message:   "Scan restart requested",
		SessionID: snapshot.SessionID,
		Stage:     snapshot.Stage.String(),
	})
}

// handleWebSocket pushes every snapshot to the client until either side
// goes away.
func (h *ScanHandler) handleWebSocket(c *websocket.Conn) {
	h.log.Info("Scan status WebSocket client connected")
	defer h.log.Info("Scan status WebSocket client disconnected")

	snapshots, unsubscribe := h.scanService.Watch()
	defer unsubscribe()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Errorf("Scan status WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := h.writeSnapshot(c, snapshot); err != nil {
				h.log.Errorf("Error writing snapshot: %v", err)
				return
			}
		}
	}
}

func (h *ScanHandler) writeSnapshot(c *websocket.Conn, snapshot stage.Snapshot) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(scan.StatusResponse{Data: snapshot})
}
