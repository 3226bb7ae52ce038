package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	metrics "github.com/sifan077/PowerLink/internal/infra/prometheus"
)

// Metrics records request count, latency and in-flight requests per route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		start := time.Now()
		err := c.Next()

		// route pattern instead of the raw path keeps usernames out of the labels
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPLatency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
