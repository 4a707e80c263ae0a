package controller

import (
	"time"

	"noteguard-be/internal/pkg/serverutils"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type IHealthController interface {
	RegisterRoutes(app fiber.Router)
	Health(ctx *fiber.Ctx) error
	Ping(ctx *fiber.Ctx) error
}

type healthController struct {
	clock     clock.Clock
	collector *metrics.Collector
	startedAt time.Time
}

func NewHealthController(clk clock.Clock, collector *metrics.Collector) IHealthController {
	return &healthController{
		clock:     clk,
		collector: collector,
		startedAt: clk.Now(),
	}
}

// RegisterRoutes mounts on the app root; /api/health is added alongside
// /health for clients that only reach the API prefix.
func (c *healthController) RegisterRoutes(app fiber.Router) {
	app.Get("/health", c.Health)
	app.Get("/api/health", c.Health)
	app.Get("/ping", c.Ping)
	app.Get("/metrics", adaptor.HTTPHandler(c.collector.Handler()))
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	now := c.clock.Now()
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{
		"status":    "up",
		"timestamp": now,
		"uptime":    now.Sub(c.startedAt).Round(time.Second).String(),
	}))
}

func (c *healthController) Ping(ctx *fiber.Ctx) error {
	return ctx.SendString("pong")
}
