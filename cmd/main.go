package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joejoe2/spring-chat-sub000/config"
	"github.com/joejoe2/spring-chat-sub000/internal/consumer"
	"github.com/joejoe2/spring-chat-sub000/internal/handlers"
	"github.com/joejoe2/spring-chat-sub000/internal/middlewares"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/pubsub"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/routers"
	"github.com/joejoe2/spring-chat-sub000/internal/services"
	"github.com/joejoe2/spring-chat-sub000/internal/storage"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	"github.com/joejoe2/spring-chat-sub000/internal/utils"
	"github.com/joejoe2/spring-chat-sub000/middleware/jwt"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
	"github.com/joejoe2/spring-chat-sub000/pkg/mq"
	"github.com/joejoe2/spring-chat-sub000/utils/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := models.InitMessageIDGenerator(cfg.Server.NodeID); err != nil {
		zlog.Fatal("init message id generator", zap.Error(err))
	}

	// The global pool backs AsyncMiddleware; excess requests queue there
	// instead of piling up goroutines.
	utils.InitGlobalWorkerPool(cfg.WorkerPool.APIWorkers, cfg.WorkerPool.APIQueue, zlog)

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		zlog.Fatal("init postgres", zap.Error(err))
	}

	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		zlog.Fatal("init redis", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repositories.NewUserRepository(db)
	publicRepo := repositories.NewPublicChannelRepository(db)
	privateRepo := repositories.NewPrivateChannelRepository(db)
	groupRepo := repositories.NewGroupChannelRepository(db)
	messageRepo := repositories.NewMessageRepository(db)

	// Fanout plumbing: one bus, one sink pool, one registry per surface.
	bus := pubsub.NewBus(redisClient, zlog)
	defer func() { _ = bus.Close() }()

	fanoutPool := subscriber.NewFanoutPool(cfg.WorkerPool.FanoutWorkers, cfg.WorkerPool.FanoutQueue, zlog)
	fanoutPool.Start()
	defer fanoutPool.Stop()

	publicRegistry := subscriber.NewRegistry(bus, pubsub.PublicSubject, fanoutPool, zlog)
	privateRegistry := subscriber.NewRegistry(bus, pubsub.PrivateSubject, fanoutPool, zlog)
	groupRegistry := subscriber.NewRegistry(bus, pubsub.GroupSubject, fanoutPool, zlog)

	bus.Start(ctx, func(subject string, payload []byte) {
		kind, key, ok := pubsub.SplitSubject(subject)
		if !ok {
			zlog.Warn("dropping frame on unknown subject", zap.String("subject", subject))
			return
		}
		frame := subscriber.Frame(payload)
		switch kind {
		case models.ChannelPublic:
			publicRegistry.Dispatch(key, frame)
		case models.ChannelPrivate:
			privateRegistry.Dispatch(key, frame)
		case models.ChannelGroup:
			groupRegistry.Dispatch(key, frame)
		}
	})

	deliveryPool := utils.NewWorkerPool(cfg.WorkerPool.DeliveryWorkers, cfg.WorkerPool.DeliveryQueue, zlog)
	deliveryPool.Start()
	defer deliveryPool.Stop()

	// Kafka is best effort: a nil producer disables event publishing and
	// the rest of the pipeline does not notice.
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			zlog.Warn("kafka producer unavailable, message events disabled", zap.Error(err))
			producer = nil
		} else {
			defer func() { _ = producer.Close() }()
			tail := consumer.NewMessageEventConsumer(zlog)
			if err := consumer.StartConsumer(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, tail, zlog); err != nil {
				zlog.Warn("kafka consumer unavailable", zap.Error(err))
			}
		}
	}

	deliverer := services.NewDeliverer(bus, deliveryPool, producer, zlog)

	// Services.
	tokens := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	publicService := services.NewPublicChannelService(publicRepo, publicRegistry)
	privateService := services.NewPrivateChannelService(privateRepo, userRepo, privateRegistry)
	groupService := services.NewGroupChannelService(groupRepo, userRepo, groupRegistry, deliverer)
	messageService := services.NewMessageService(messageRepo, publicRepo, privateRepo, groupRepo, deliverer)

	// Handlers.
	authHandler := handlers.NewAuthHandler(authService)
	publicHandler := handlers.NewPublicChannelHandler(publicService, messageService, cfg.Realtime, zlog)
	privateHandler := handlers.NewPrivateChannelHandler(privateService, messageService, cfg.Realtime, zlog)
	groupHandler := handlers.NewGroupChannelHandler(groupService, messageService, cfg.Realtime, zlog)
	messageHandler := handlers.NewMessageHandler(messageService)

	limiter := ratelimit.NewWindowLimiter(redisClient, zlog, cfg.RateLimit.FailOpen)
	authMiddleware := middlewares.AuthMiddleware(tokens, userService)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	routers.SetupRoutes(r, cfg,
		authHandler,
		publicHandler,
		privateHandler,
		groupHandler,
		messageHandler,
		authMiddleware,
		limiter,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		zlog.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server shutdown", zap.Error(err))
	}
}
