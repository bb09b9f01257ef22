package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type DeliveryMetrics interface {
	RecordPublishSuccess(topic string)
	RecordPublishFailure(topic string)
}

// Sweeper redelivers events that exhausted their inline publish attempts.
// Each pass it takes one batch of due events, publishes them, and reschedules
// the ones that still fail with exponential backoff. Run from the worker on a
// ticker.
type Sweeper struct {
	store       Store
	producer    Producer
	metrics     DeliveryMetrics
	batchSize   int
	baseBackoff time.Duration
	logger      *zap.Logger
}

func NewSweeper(store Store, producer Producer, metrics DeliveryMetrics, batchSize int, baseBackoff time.Duration, logger *zap.Logger) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	return &Sweeper{
		store:       store,
		producer:    producer,
		metrics:     metrics,
		batchSize:   batchSize,
		baseBackoff: baseBackoff,
		logger:      logger,
	}
}

// Sweep processes one batch and reports how many events were delivered.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	due, err := s.store.FetchDue(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, event := range due {
		if err := s.producer.Publish(ctx, event.Topic, event.Key, json.RawMessage(event.Payload)); err != nil {
			s.metrics.RecordPublishFailure(event.Topic)
			s.logger.Warn("outbox redelivery failed",
				zap.String("event_id", event.ID),
				zap.String("topic", event.Topic),
				zap.Int("attempts", event.Attempts+1),
				zap.Error(err),
			)
			next := time.Now().Add(s.backoff(event.Attempts))
			if err := s.store.Reschedule(ctx, event.ID, event.Attempts+1, next); err != nil {
				s.logger.Error("outbox reschedule failed", zap.String("event_id", event.ID), zap.Error(err))
			}
			continue
		}

		s.metrics.RecordPublishSuccess(event.Topic)
		if err := s.store.MarkDelivered(ctx, event.ID); err != nil {
			// The event will be retried and delivered again; consumers
			// deduplicate, so this is safe.
			s.logger.Error("outbox mark delivered failed", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (s *Sweeper) backoff(attempts int) time.Duration {
	if attempts > 6 {
		attempts = 6
	}
	return s.baseBackoff << uint(attempts)
}
