package serverutils

import (
	"time"

	"noteguard-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request count and latency per route template,
// so share tokens and note ids never become label values.
func MetricsMiddleware(collector *metrics.Collector) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		started := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
		}
		route := "unmatched"
		if r := ctx.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		collector.ObserveHTTP(ctx.Method(), route, status, time.Since(started))
		return err
	}
}
