package handlerUtil

import (
	"FaceScan/internal/api/scan"
	"FaceScan/internal/entity"
	"FaceScan/pkg/log"
	"FaceScan/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	if errors.Is(err, scan.ErrScanInProgress) {
		h.logger.WithFields(fields).Warn("Scan already in progress")
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "A scan is already in progress",
			Code:  "SCAN_IN_PROGRESS",
		})
	}

	if errors.Is(err, scan.ErrUnknownViewport) {
		h.logger.WithFields(fields).Warn("Unknown viewport")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Viewport must be mobile or desktop",
			Code:  "UNKNOWN_VIEWPORT",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		status := response.StatusOf(err)
		fields["code"] = status
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(status).JSON(ErrorResponse{Error: respErr.Error()})
	}

	if errors.Is(err, entity.ErrResourceUnavailable) {
		h.logger.WithFields(fields).Warn("Scan resource unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  "RESOURCE_UNAVAILABLE",
		})
	}

	if errors.Is(err, entity.ErrInvalidConfiguration) {
		traceID := log.ErrorWithTraceID(fields, "Invalid scan configuration")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Scan is misconfigured",
			Code:    "INVALID_CONFIGURATION",
			TraceID: traceID,
		})
	}

	traceID := log.ErrorWithTraceID(fields, "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
