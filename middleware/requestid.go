package middleware

import (
	"github.com/aisgo/workshop-server/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates the inbound request id (or generates one) into the
// request context and response headers. logger.WithContext picks it up.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)
		c.SetContext(logger.WithRequestID(c.Context(), rid))
		return c.Next()
	}
}
