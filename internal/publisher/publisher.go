package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/outbox"
	"go.uber.org/zap"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type DeliveryMetrics interface {
	RecordPublishSuccess(topic string)
	RecordPublishFailure(topic string)
}

// PublishOutcome reports how a completion event delivery went. A failed
// delivery is a monitoring concern, never a reason to unwind the reservation
// or the payment.
type PublishOutcome struct {
	Delivered bool
	Attempts  int
	Enqueued  bool
	Event     domain.ReservationCompletedEvent
}

// Publisher delivers reservation completion events to the completed topic
// with bounded retries and exponential backoff. Every attempt, successful or
// not, is reported to the metrics collector. Exhausted events are handed to
// the outbox for eventual redelivery.
type Publisher struct {
	producer       Producer
	outbox         outbox.Store
	metrics        DeliveryMetrics
	topic          string
	maxAttempts    int
	baseBackoff    time.Duration
	attemptTimeout time.Duration
	logger         *zap.Logger
}

func NewPublisher(producer Producer, store outbox.Store, metrics DeliveryMetrics, topic string, maxAttempts int, baseBackoff, attemptTimeout time.Duration, logger *zap.Logger) *Publisher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 5 * time.Second
	}
	return &Publisher{
		producer:       producer,
		outbox:         store,
		metrics:        metrics,
		topic:          topic,
		maxAttempts:    maxAttempts,
		baseBackoff:    baseBackoff,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Publish builds the immutable completion snapshot and sends it. The
// reservation must be CONFIRMED and the payment COMPLETED; any other
// combination is rejected before anything reaches the wire.
func (p *Publisher) Publish(ctx context.Context, reservation *domain.Reservation, payment *domain.Payment, concertTitle string) (PublishOutcome, error) {
	event, err := domain.NewReservationCompletedEvent(reservation, payment, concertTitle, time.Now())
	if err != nil {
		return PublishOutcome{}, err
	}

	outcome := PublishOutcome{Event: event}
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		outcome.Attempts = attempt + 1

		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		err = p.producer.Publish(attemptCtx, p.topic, event.ReservationID, event)
		cancel()

		if err == nil {
			p.metrics.RecordPublishSuccess(p.topic)
			outcome.Delivered = true
			return outcome, nil
		}

		p.metrics.RecordPublishFailure(p.topic)
		p.logger.Warn("completion event publish attempt failed",
			zap.String("reservation_id", event.ReservationID),
			zap.String("topic", p.topic),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if attempt < p.maxAttempts-1 {
			select {
			case <-time.After(p.baseBackoff << uint(attempt)):
			case <-ctx.Done():
				return p.exhausted(ctx, outcome, event)
			}
		}
	}

	return p.exhausted(ctx, outcome, event)
}

// exhausted hands the event to the durable outbox. The business transaction
// stays committed either way; the money has already moved.
func (p *Publisher) exhausted(ctx context.Context, outcome PublishOutcome, event domain.ReservationCompletedEvent) (PublishOutcome, error) {
	if p.outbox == nil {
		return outcome, nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("completion event marshal failed", zap.String("reservation_id", event.ReservationID), zap.Error(err))
		return outcome, nil
	}

	// Enqueue with a fresh context so a canceled request can still park the
	// event for redelivery.
	enqueueCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		enqueueCtx, cancel = context.WithTimeout(context.Background(), p.attemptTimeout)
		defer cancel()
	}
	if err := p.outbox.Enqueue(enqueueCtx, p.topic, event.ReservationID, payload); err != nil {
		p.logger.Error("completion event outbox enqueue failed", zap.String("reservation_id", event.ReservationID), zap.Error(err))
		return outcome, nil
	}

	outcome.Enqueued = true
	return outcome, nil
}
