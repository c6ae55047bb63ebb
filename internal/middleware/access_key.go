package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const AccessKeyHeader = "X-API-Key"

type accessKeyMiddleware struct {
	key string
}

func newAccessKeyMiddleware(key string) *accessKeyMiddleware {
	return &accessKeyMiddleware{key: key}
}

// NewAccessKeyMiddleware guards the control routes with a shared key sent in
// X-API-Key or as a bearer token. It lets everything through when no key is
// configured.
func (m *middleware) NewAccessKeyMiddleware(ctx *fiber.Ctx) error {
	if m.accessKey.key == "" {
		return ctx.Next()
	}

	provided := ctx.Get(AccessKeyHeader)
	if provided == "" {
		authHeader := ctx.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			provided = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if subtle.ConstantTimeCompare([]byte(provided), []byte(m.accessKey.key)) != 1 {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"method":    ctx.Method(),
			"client_ip": ctx.IP(),
		}).Warn("[middleware.NewAccessKeyMiddleware] rejected request with invalid access key")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing access key",
			"code":  "UNAUTHORIZED",
		})
	}

	return ctx.Next()
}
