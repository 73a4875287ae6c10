package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
)

// HTTPMetricsMiddleware records request count and latency per
// method/route/status. The route pattern is used as the path label so
// /api/v1/clients/:id does not explode label cardinality.
func HTTPMetricsMiddleware(skipper func(fiber.Ctx) bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		if skipper != nil && skipper(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		method := c.Method()
		path := ""
		if route := c.Route(); route != nil {
			path = route.Path
		}
		if path == "" || path == "/" {
			path = c.Path()
		}

		HTTPRequestTotal.WithLabelValues(method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		return err
	}
}
