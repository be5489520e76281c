package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"ai-sceneguide-be/internal/config"
	"ai-sceneguide-be/internal/controller"
	"ai-sceneguide-be/internal/handler"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/pkg/serverutils"
	"ai-sceneguide-be/internal/repository/contract"
	"ai-sceneguide-be/internal/repository/guidestore"
	"ai-sceneguide-be/internal/repository/implementation"
	"ai-sceneguide-be/internal/repository/memory"
	"ai-sceneguide-be/internal/service"
	"ai-sceneguide-be/internal/websocket"
	"ai-sceneguide-be/pkg/database"
	"ai-sceneguide-be/pkg/events"
	"ai-sceneguide-be/pkg/lock"
	pktNats "ai-sceneguide-be/pkg/nats"
	"ai-sceneguide-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const auditDurable = "sceneguide-audit"

type Container struct {
	// Controllers
	UploadController controller.IUploadController
	GuideController  controller.IGuideController
	HealthController controller.IHealthController
	Auth             fiber.Handler

	GuideStatusHandler *handler.GuideStatusHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	StatusHub       *websocket.Hub

	Logger logger.ILogger

	natsSub *pktNats.Subscriber
	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	providerLogger := logger.NewIsolatedLogger(cfg.App.ProviderLogPath)
	c.Logger = sysLogger

	// 2. Storage, chosen once
	store, err := c.newGuideStore(ctx, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	sessionRepo := memory.NewUploadSessionRepository(cfg.App.UploadSessionTTL)

	// 3. Redis (optional) and Event Bus
	rdb := c.newRedis(ctx, cfg, sysLogger)
	c.StatusHub = websocket.NewHub(rdb, sysLogger)

	channelBus := events.NewChannelBus(events.DefaultTopic, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, channelBus.Close)

	var publisher events.Publisher = channelBus
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS publisher, using in-process bus", map[string]interface{}{"error": err.Error()})
		} else {
			natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
			if err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS subscriber, using in-process bus", map[string]interface{}{"error": err.Error()})
				natsPub.Close()
			} else {
				publisher = natsPub
				c.natsSub = natsSub
				c.closers = append(c.closers, func() error { natsPub.Close(); natsSub.Close(); return nil })
			}
		}
	}
	c.ConsumerService = service.NewConsumerService(channelBus, sysLogger)
	publisher = events.FanOut{publisher, c.StatusHub}

	// 4. Generation lock
	var locker lock.Locker = lock.NewMemoryLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "")
	}

	// 5. Pipeline
	extractor := NewExtractor(ctx, cfg, sysLogger)
	index, err := NewIndex(cfg, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("load methodology corpus: %w", err)
	}
	orchestrator := NewOrchestrator(ctx, cfg, providerLogger)
	guideWorkflow := workflow.New(store, index, NewAssembler(cfg), orchestrator, publisher, sysLogger)

	// 6. Services
	uploadService := service.NewUploadService(extractor, sessionRepo, sysLogger)
	guideService := service.NewGuideService(guideWorkflow, store, sessionRepo, locker, service.DefaultGenerationLockTTL, sysLogger)
	healthService := service.NewHealthService(service.HealthSources{
		Storage:    storageHealth{store},
		Providers:  orchestrator.Providers,
		Extractors: extractor.Strategies,
		Corpus:     index.Len,
		Events:     c.ConsumerService.Stats,
	})

	// 7. Controllers
	c.UploadController = controller.NewUploadController(uploadService, cfg.App.UploadMaxBytes)
	c.GuideController = controller.NewGuideController(guideService)
	c.HealthController = controller.NewHealthController(healthService)
	c.Auth = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.GuideStatusHandler = handler.NewGuideStatusHandler(c.StatusHub, sysLogger)

	sysLogger.Info("BOOTSTRAP", "Container ready", map[string]interface{}{
		"storage":    string(store.Kind()),
		"providers":  orchestrator.Providers(),
		"extractors": extractor.Strategies(),
		"corpus":     index.Len(),
	})
	return c, nil
}

// newGuideStore tries the primary backend first and falls back to the
// secondary one. The choice is not revisited while the process runs.
func (c *Container) newGuideStore(ctx context.Context, cfg *config.Config, log logger.ILogger) (*guidestore.GuideStore, error) {
	var primary, secondary contract.GuideRepository

	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "production")
		if err != nil {
			log.Warn("BOOTSTRAP", "Primary storage unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			primary = implementation.NewGuideRepository(db)
			if sqlDB, err := db.DB(); err == nil {
				c.closers = append(c.closers, sqlDB.Close)
			}
		}
	}

	if primary == nil && cfg.Database.SecondaryPath != "" {
		db, err := database.OpenSQLite(ctx, cfg.Database.SecondaryPath, implementation.GuideSQLiteSchema)
		if err != nil {
			log.Error("BOOTSTRAP", "Secondary storage unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			secondary = implementation.NewSQLiteGuideRepository(db)
			c.closers = append(c.closers, db.Close)
		}
	}

	backend, err := guidestore.SelectBackend(primary, secondary)
	if err != nil {
		return nil, err
	}
	log.Info("BOOTSTRAP", "Guide storage selected", map[string]interface{}{"backend": string(backend.Kind)})
	return guidestore.New(backend, log)
}

// newRedis returns a connected client, or nil when Redis is not configured
// or unreachable. Locks and status fan-out stay in-process without it.
func (c *Container) newRedis(ctx context.Context, cfg *config.Config, log logger.ILogger) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, running single instance", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return nil
	}
	c.closers = append(c.closers, rdb.Close)
	return rdb
}

// StartBackground runs the status hub and the audit consumer. The consumer
// reads from NATS when connected and from the in-process bus otherwise.
func (c *Container) StartBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.StatusHub.Run(ctx) })
	g.Go(func() error {
		if c.natsSub != nil {
			return c.natsSub.Subscribe(ctx, pktNats.SubjectPrefix+">", auditDurable, c.ConsumerService.HandleEvent)
		}
		return c.ConsumerService.Consume(ctx)
	})
	return g.Wait()
}

func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	// Sync on a console core fails on some platforms; nothing to act on.
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

type storageHealth struct {
	store *guidestore.GuideStore
}

func (s storageHealth) Kind() string {
	return string(s.store.Kind())
}

func (s storageHealth) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
