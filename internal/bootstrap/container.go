package bootstrap

import (
	"context"
	"fmt"
	"time"

	"acquisition-arena-be/internal/config"
	"acquisition-arena-be/internal/controller"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/internal/repository/memory"
	"acquisition-arena-be/internal/repository/unitofwork"
	"acquisition-arena-be/internal/service"
	"acquisition-arena-be/pkg/events"
	"acquisition-arena-be/pkg/feedback"
	"acquisition-arena-be/pkg/llm/factory"
	pktNats "acquisition-arena-be/pkg/nats"
	"acquisition-arena-be/pkg/voiceagent"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const bootModule = "BOOTSTRAP"

type Container struct {
	// Controllers
	TrainingSessionController controller.ITrainingSessionController
	PersonaController         controller.IPersonaController
	ParcelController          controller.IParcelController
	HealthController          controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	EventAudit      *service.EventAuditService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	jobLogger := logger.NewIsolatedLogger(cfg.App.JobLogFilePath)

	c := &Container{Logger: sysLogger}

	// 2. Job Queue
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logger.NewWatermillAdapter(sysLogger, "WATERMILL"),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS
	checks := map[string]controller.Pinger{
		"database": controller.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(bootModule, "Failed to connect to NATS Publisher, domain events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		checks["nats"] = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(bootModule, "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis backs the cross-instance provisioning lock when configured.
	var locker voiceagent.Locker = voiceagent.NewLocalLocker()
	if cfg.App.RedisURL != "" {
		rdb, err := newRedis(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn(bootModule, "Redis unavailable, provisioning lock is process-local", map[string]interface{}{"error": err.Error()})
		} else {
			locker = voiceagent.ChainLocker{locker, voiceagent.NewRedisLocker(rdb, cfg.VoiceAgent.LockLease)}
			checks["redis"] = controller.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	// 4. External Providers
	voiceClient := voiceagent.NewClient(cfg.VoiceAgent.BaseURL, cfg.VoiceAgent.ApiKey, cfg.VoiceAgent.RequestTimeout)
	broker := voiceagent.NewBroker(
		voiceClient,
		service.NewPersonaAgentStore(uowFactory),
		locker,
		sysLogger,
		voiceagent.WithLanguage(cfg.VoiceAgent.Language),
	)

	llmProvider, err := factory.NewLLMProvider(context.Background(), factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     cfg.Ai.BaseURL,
		ApiKey:      cfg.Ai.ApiKey,
		Temperature: cfg.Ai.Temperature,
		MaxTokens:   cfg.Ai.MaxTokens,
		Timeout:     cfg.Ai.RequestTimeout,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info(bootModule, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	engine := feedback.NewEngine(llmProvider, jobLogger, feedback.Options{
		Temperature: cfg.Ai.Temperature,
		MaxTokens:   cfg.Ai.MaxTokens,
	})
	briefs := memory.NewBriefCache(cfg.Sessions.BriefCacheTTL)

	// 5. Services
	eventService := service.NewEventService(eventPublisher, sysLogger)
	publisherService := service.NewPublisherService(cfg.Jobs.FeedbackTopic, pubSub)
	jobService := service.NewFeedbackJobService(uowFactory, broker, engine, eventService, jobLogger)
	// The queue is in-memory; sessions left generating feedback by a restart
	// are re-enqueued once the worker is subscribed.
	recoveryService := service.NewFeedbackRecoveryService(uowFactory, publisherService, jobLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Jobs.FeedbackTopic,
		jobService,
		recoveryService,
		jobLogger,
		service.ConsumerOptions{
			MaxRetries:    cfg.Jobs.MaxRetries,
			RetryInterval: cfg.Jobs.RetryInterval,
			JobTimeout:    cfg.Jobs.Timeout,
		},
	)

	personaService := service.NewPersonaService(uowFactory, broker, eventService, sysLogger)
	parcelService := service.NewParcelService(uowFactory, briefs)
	sessionService := service.NewTrainingSessionService(
		uowFactory,
		broker,
		publisherService,
		eventService,
		briefs,
		sysLogger,
		cfg.Sessions.InitialAllowance,
	)

	// Audit trail of domain events
	auditLogger := logger.NewIsolatedLogger("logs/events.log")
	c.EventAudit = service.NewEventAuditService(natsSub, auditLogger)

	// 6. Controllers
	c.TrainingSessionController = controller.NewTrainingSessionController(sessionService)
	c.PersonaController = controller.NewPersonaController(personaService)
	c.ParcelController = controller.NewParcelController(parcelService)
	c.HealthController = controller.NewHealthController(checks)
	c.ConsumerService = consumerService

	return c, nil
}

// Close releases infrastructure connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
