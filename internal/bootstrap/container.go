package bootstrap

import (
	"context"
	"fmt"

	"noteguard-be/internal/config"
	"noteguard-be/internal/controller"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/pkg/serverutils"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/internal/service"
	internalWS "noteguard-be/internal/websocket"
	"noteguard-be/pkg/cipher"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/metrics"
	pktNats "noteguard-be/pkg/nats"
	"noteguard-be/pkg/redislock"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const cleanupLockKey = "noteguard:cleanup:lock"

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Collector

	// Controllers
	NoteController   controller.INoteController
	AuthController   controller.IAuthController
	AdminController  controller.IAdminController
	HealthController controller.IHealthController
	JwtMiddleware    fiber.Handler

	// Services
	NoteService    service.INoteService
	ShareService   service.IShareService
	AuthService    service.IAuthService
	AdminService   service.IAdminService
	CleanupService service.ICleanupService

	// ConsumerService relays lifecycle events to NATS. Nil when NATS_URL is
	// unset or unreachable.
	ConsumerService service.IConsumerService

	// EventHub streams lifecycle events to admin websocket clients.
	EventHub *internalWS.Hub

	bus     *gochannel.GoChannel
	closers []func()
}

// NewContainer wires every service on top of uowFactory. Optional
// infrastructure (NATS, Redis) is skipped with a warning when it is not
// configured or cannot be reached.
func NewContainer(ctx context.Context, cfg *config.Config, uowFactory unitofwork.RepositoryFactory, sysLogger logger.ILogger, clk clock.Clock) (*Container, error) {
	noteCipher, err := cipher.New(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("initializing note cipher: %w", err)
	}

	c := &Container{
		Logger:  sysLogger,
		Metrics: metrics.NewCollector("noteguard"),
	}

	// Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	c.bus = pubSub
	c.EventHub = internalWS.NewHub(sysLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	publisherService := service.NewPublisherService(service.LifecycleTopic, pubSub)

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS unavailable, lifecycle events stay in-process", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			c.closers = append(c.closers, natsPub.Close)
			c.ConsumerService = service.NewConsumerService(pubSub, service.LifecycleTopic, natsPub, c.Metrics, sysLogger)
		}
	}

	// Sweep lock
	var sweepLock service.SweepLock
	if cfg.App.RedisURL != "" {
		if rdb := connectRedis(ctx, cfg.App.RedisURL, sysLogger); rdb != nil {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
			sweepLock = redislock.New(rdb, cleanupLockKey, cfg.Cleanup.LockTTL)
		}
	}

	c.NoteService = service.NewNoteService(uowFactory, noteCipher, clk, publisherService, c.Metrics, sysLogger, cfg.Notes.NoteMaxTTL)
	c.ShareService = service.NewShareService(uowFactory, noteCipher, clk, publisherService, c.Metrics, sysLogger,
		cfg.App.BaseURL, cfg.Notes.ShareDefaultTTL, cfg.Notes.ShareMaxTTL)
	c.AuthService = service.NewAuthService(uowFactory, clk, sysLogger, cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	c.AdminService = service.NewAdminService(uowFactory, noteCipher, clk, publisherService, c.Metrics, sysLogger)
	c.CleanupService = service.NewCleanupService(uowFactory, clk, sweepLock, publisherService, c.Metrics, sysLogger, cfg.Cleanup.Interval)

	c.JwtMiddleware = serverutils.JwtMiddleware(cfg.Security.JWTSecret)
	c.NoteController = controller.NewNoteController(c.NoteService, c.ShareService)
	c.AuthController = controller.NewAuthController(c.AuthService)
	c.AdminController = controller.NewAdminController(c.AdminService, c.NoteService, c.CleanupService, c.EventHub)
	c.HealthController = controller.NewHealthController(clk, c.Metrics)

	return c, nil
}

func connectRedis(ctx context.Context, url string, sysLogger logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Redis unavailable, cleanup runs without a lock", map[string]interface{}{
			"error": err.Error(),
		})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Start launches the admin event feed, the event relay and, when enabled,
// the cleanup scheduler. All of them stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context, cfg *config.Config) error {
	go c.EventHub.Run(ctx)
	if err := internalWS.Feed(ctx, c.bus, service.LifecycleTopic, c.EventHub); err != nil {
		return fmt.Errorf("starting admin event feed: %w", err)
	}
	if c.ConsumerService != nil {
		if err := c.ConsumerService.Consume(ctx); err != nil {
			return fmt.Errorf("starting event relay: %w", err)
		}
	}
	if cfg.Cleanup.Enabled {
		if err := c.CleanupService.Start(ctx); err != nil {
			return fmt.Errorf("starting cleanup scheduler: %w", err)
		}
	}
	return nil
}

// Close stops the scheduler and releases infrastructure in reverse order.
func (c *Container) Close() {
	c.CleanupService.Stop()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
