package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/concertbooking/config"
	"github.com/Domenick1991/concertbooking/internal/bootstrap"
	"github.com/Domenick1991/concertbooking/internal/cache"
	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/Domenick1991/concertbooking/internal/gateway"
	"github.com/Domenick1991/concertbooking/internal/kafka"
	"github.com/Domenick1991/concertbooking/internal/ledger"
	"github.com/Domenick1991/concertbooking/internal/metrics"
	"github.com/Domenick1991/concertbooking/internal/outbox"
	"github.com/Domenick1991/concertbooking/internal/publisher"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/Domenick1991/concertbooking/internal/service/checkout"
	"github.com/Domenick1991/concertbooking/internal/service/payment"
	"github.com/Domenick1991/concertbooking/internal/service/reservation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	concertTTL := time.Duration(cfg.Booking.ConcertCacheTTLSec) * time.Second
	concertCache := cache.NewRedisCache(redisClient, concertTTL)

	concertRepo := repository.NewConcertRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	cat := catalog.NewPGCatalog(concertRepo, concertCache, logger)
	seats := ledger.NewRedisLedger(redisClient, cat, time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, logger)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	outboxStore := outbox.NewPGStore(pool)
	pub := publisher.NewPublisher(
		producer,
		outboxStore,
		collector,
		cfg.Kafka.CompletedTopic,
		cfg.Publisher.MaxAttempts,
		time.Duration(cfg.Publisher.BaseBackoffMillis)*time.Millisecond,
		time.Duration(cfg.Publisher.AttemptTimeoutSec)*time.Second,
		logger,
	)

	gw := newGateway(cfg, logger)

	reservationSvc := reservation.NewService(reservationRepo, seats, cat, logger)
	paymentSvc := payment.NewService(
		paymentRepo,
		reservationRepo,
		gw,
		cfg.Payment.MaxRetries,
		time.Duration(cfg.Payment.BackoffMillis)*time.Millisecond,
		logger,
	)
	checkoutSvc := checkout.NewService(reservationSvc, paymentSvc, pub, cat, logger)

	if err := bootstrap.Run(ctx, cfg, registry, logger, checkoutSvc, checkoutSvc); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// newGateway picks Stripe when a key is configured, the in-process fake
// otherwise so the service can run against local infrastructure only.
func newGateway(cfg *config.Config, logger *zap.Logger) gateway.PaymentGateway {
	key := cfg.Gateway.StripeKey()
	timeout := time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second
	if key == "" {
		logger.Warn("stripe key not set, using fake gateway")
		return gateway.NewFakeGateway()
	}
	return gateway.NewStripeGateway(key, cfg.Gateway.Currency, timeout)
}
