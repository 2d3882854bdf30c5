package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/btmxh/gym-tsfr/internal/application/usecases/checkin"
	"github.com/btmxh/gym-tsfr/internal/application/usecases/message"
	"github.com/btmxh/gym-tsfr/internal/application/usecases/room"
	"github.com/btmxh/gym-tsfr/internal/domain"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/auth"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/cache"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/configs"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/events"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/logging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/messaging"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/metrics"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ratelimiter"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/realtime"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/repository"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/sign"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/tracing"
	"github.com/btmxh/gym-tsfr/internal/infrastructure/ws"
	"github.com/btmxh/gym-tsfr/internal/persistence/db"
	mongoRepository "github.com/btmxh/gym-tsfr/internal/persistence/repository"
	"github.com/btmxh/gym-tsfr/internal/presentation/api"
	eventsHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/events"
	healthHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/health"
	messagesHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/messages"
	realtimeHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/realtime"
	roomHandler "github.com/btmxh/gym-tsfr/internal/presentation/handler/rooms"
	"github.com/joho/godotenv"
)

func main() {
	// key material usually lives in .env; a missing file is fine
	_ = godotenv.Load()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(logging.FromConfig(cfg.Logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(tracing.NewConfig(cfg))
	if err != nil {
		logger.Fatal(logging.General, logging.Startup, "failed to initialize the tracer", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer shutdownTracer(ctx)
	tracer := tracing.GetTracer(cfg.Tracing.ServiceName)

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal(logging.Redis, logging.Startup, "failed to connect to redis", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer redisClient.Close()

	mongoCfg := db.NewMongoConfig(cfg.Mongo)
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		logger.Fatal(logging.MongoDB, logging.Startup, "failed to connect to mongodb", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer db.DisconnectMongo(context.Background(), mongoClient)
	database := db.GetDatabase(mongoClient, mongoCfg)

	checkInRepository := mongoRepository.NewCheckInRepository(database, tracer)
	auditRepository := mongoRepository.NewRoomAuditLogRepository(database, tracer)
	ensureIndexes(ctx, logger, checkInRepository, auditRepository)

	publisher, closeBroker := newRoomPublisher(ctx, cfg, auditRepository, logger)
	defer closeBroker()

	signer, err := sign.NewFromConfig(cfg.QR)
	if err != nil {
		logger.Fatal(logging.Token, logging.Startup, "failed to load signing keys", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	tokens := sign.NewTokens(signer)
	if !tokens.CanIssue() {
		logger.Warn(logging.Token, logging.Startup, "no private key configured, qr codes can only be verified", nil)
	}

	appMetrics := metrics.New()

	roomRepository := repository.NewRoomRepository(redisClient, tracer, cfg.Room.AdmissionRetries)
	messageRepository := repository.NewMessageRepository(redisClient, tracer)
	bus := realtime.NewRedisBus(redisClient, cfg.Room.ReplayLength, logger)

	roomUseCase := room.NewRoomUseCase(roomRepository, bus, publisher, appMetrics, logger, cfg.Room.TTL)
	messageUseCase := message.NewMessageUseCase(roomRepository, messageRepository, bus, publisher, appMetrics, logger)
	checkInUseCase := checkin.NewCheckInUseCase(tokens, checkInRepository, appMetrics, logger, checkin.Options{
		Window:  cfg.QR.Window,
		BaseURL: cfg.QR.BaseURL,
	})

	rlCache := ratelimiter.NewCache(cfg.RateLimiter.Backend, redisClient)
	defer rlCache.Close()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		Cache:            rlCache,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(
		cfg,
		roomUseCase,
		auth.NewHeaderResolver(),
		roomHandler.NewHandler(roomUseCase, logger),
		messagesHandler.NewHandler(messageUseCase, logger),
		realtimeHandler.NewHandler(bus, ws.NewUpgrader(cfg.HTTP.AllowedOrigins), logger),
		eventsHandler.NewHandler(checkInUseCase, logger),
		healthHandler.NewHandler(map[string]healthHandler.Check{
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		}),
		logger,
		rl,
		appMetrics,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server stopped", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}

// newRoomPublisher connects to RabbitMQ when configured and starts the
// audit log consumer. Without a broker, room events are dropped.
func newRoomPublisher(
	ctx context.Context,
	cfg *configs.Config,
	audit domain.RoomAuditRepository,
	logger logging.Logger,
) (domain.RoomEventPublisher, func()) {
	if cfg.RabbitMQ.URI == "" {
		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq disabled, room events are not published", nil)
		return events.NoopPublisher{}, func() {}
	}

	rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to connect to rabbitmq", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	consumer := events.NewRoomConsumer(rabbitmq, audit, logger)
	go func() {
		if err := consumer.Listen(ctx); err != nil {
			logger.Error(logging.RabbitMQ, logging.Subscribe, "room consumer stopped", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}()

	logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq connected", nil)
	return events.NewRoomPublisher(rabbitmq), rabbitmq.Close
}

func ensureIndexes(ctx context.Context, logger logging.Logger, repositories ...interface {
	EnsureIndexes(ctx context.Context) error
}) {
	for _, r := range repositories {
		if err := r.EnsureIndexes(ctx); err != nil {
			logger.Warn(logging.MongoDB, logging.Startup, "failed to ensure indexes", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}
