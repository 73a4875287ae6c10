package middleware

import (
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/response"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// NewErrorHandler returns a Fiber ErrorHandler with unified logging and
// response formatting. Business errors map to their own HTTP status and
// are logged at warn; everything else is a 500 and logged at error.
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		if log != nil {
			fields := []zap.Field{
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			}
			if _, ok := errors.AsBizError(err); ok {
				log.Warn("request failed", fields...)
			} else {
				log.Error("unhandled error", fields...)
			}
		}
		return response.Error(c, err)
	}
}
