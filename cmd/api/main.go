package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/config"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/geo"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/handler"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/infra/postgresql"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/infra/postgresql/migrations"
	infraredis "github.com/Hmvalles75/mobile-phlebotomy-directory/internal/infra/redis"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/messaging"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/observability"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/payment"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/queue"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/service"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	geocoder, err := geo.NewHTTPGeocoder(cfg.GeocoderBaseURL, rdb, logger)
	if err != nil {
		logger.Fatal("geocoder initialization failed", zap.Error(err))
	}
	distance := geo.NewDistance(geocoder)
	matcher := match.NewMatcher(distance)

	charger, err := payment.NewAPICharger(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	if err != nil {
		logger.Fatal("payment charger initialization failed", zap.Error(err))
	}

	emailSender, err := messaging.NewAPIEmailSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
	if err != nil {
		logger.Fatal("email sender initialization failed", zap.Error(err))
	}
	smsSender, err := messaging.NewAPISMSSender(cfg.SMSAPIURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSMessagingServiceID)
	if err != nil {
		logger.Fatal("sms sender initialization failed", zap.Error(err))
	}

	leadRepo := repository.NewGormLeadRepo(db)
	providerRepo := repository.NewGormProviderRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)
	chargeRepo := repository.NewGormChargeAttemptRepo(db)

	publisher := queue.NewRabbitMQPublisher(mq)
	outbox := service.NewNotificationOutbox(attemptRepo, publisher, logger)

	ranker, err := service.NewRanker(cfg.RankerStrategy, distance)
	if err != nil {
		logger.Fatal("ranker initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	cascade, err := service.NewCascadeService(
		leadRepo,
		providerRepo,
		chargeRepo,
		matcher,
		ranker,
		charger,
		outbox,
		cfg.AdminAlertEmail,
		logger,
	)
	if err != nil {
		logger.Fatal("cascade service initialization failed", zap.Error(err))
	}
	cascade.SetMetrics(metrics)

	broadcast, err := service.NewBroadcastService(providerRepo, matcher, distance, outbox, logger)
	if err != nil {
		logger.Fatal("broadcast service initialization failed", zap.Error(err))
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)
	worker, err := service.NewDeliveryWorker(
		attemptRepo,
		leadRepo,
		consumer,
		emailSender,
		smsSender,
		rateLimiter,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("delivery worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterLeadRoutes(app, leadRepo, cascade); err != nil {
		logger.Fatal("lead routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterProviderRoutes(app, providerRepo); err != nil {
		logger.Fatal("provider routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterBroadcastRoutes(app, leadRepo, attemptRepo, broadcast); err != nil {
		logger.Fatal("broadcast routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return worker.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("service exited with error", zap.Error(err))
	}
	logger.Info("service stopped")
}
