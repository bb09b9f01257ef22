package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/concertbooking/config"
	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/kafka"
	"github.com/Domenick1991/concertbooking/internal/metrics"
	"github.com/Domenick1991/concertbooking/internal/outbox"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
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

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, logger)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	sweeper := outbox.NewSweeper(
		outbox.NewPGStore(pool),
		producer,
		collector,
		cfg.Worker.OutboxBatchSize,
		time.Duration(cfg.Publisher.BaseBackoffMillis)*time.Millisecond,
		logger,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.CompletedTopic)
	defer consumer.Close()

	// The delivery monitor tails the completed topic so the consume-lag gauge
	// reflects how far behind downstream consumers would be.
	go func() {
		if err := consumer.Consume(ctx, func(_ context.Context, msg kafkaGo.Message) error {
			collector.RecordConsumeLag(cfg.Kafka.CompletedTopic, consumer.Lag())

			var event domain.ReservationCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("skipping undecodable event", zap.Error(err))
				return nil
			}
			logger.Info("completion event observed",
				zap.String("reservation_id", event.ReservationID),
				zap.String("transaction_id", event.TransactionID),
			)
			return nil
		}); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.OutboxSweepSeconds) * time.Second)
	defer sweepTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			delivered, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Error("outbox sweep error", zap.Error(err))
				continue
			}
			if delivered > 0 {
				logger.Info("outbox events delivered", zap.Int("count", delivered))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
