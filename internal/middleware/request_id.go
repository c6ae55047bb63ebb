package middleware

import (
	"FaceScan/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"time"
)

const RequestIDKey = "X-Request-ID"

// NewRequestIDMiddleware keeps a caller-supplied ULID request id and mints a
// new one for anything else.
func NewRequestIDMiddleware() fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if _, err := ulid.ParseStrict(requestID); err != nil {
			requestID, _ = utilsInstance.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}
