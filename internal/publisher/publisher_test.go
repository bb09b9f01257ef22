package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

type countingMetrics struct {
	success map[string]int
	failure map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{success: map[string]int{}, failure: map[string]int{}}
}

func (c *countingMetrics) RecordPublishSuccess(topic string) { c.success[topic]++ }
func (c *countingMetrics) RecordPublishFailure(topic string) { c.failure[topic]++ }

type fakeOutbox struct {
	events []outbox.Event
}

func (f *fakeOutbox) Enqueue(ctx context.Context, topic, key string, payload []byte) error {
	f.events = append(f.events, outbox.Event{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (f *fakeOutbox) FetchDue(ctx context.Context, limit int) ([]outbox.Event, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkDelivered(ctx context.Context, id string) error { return nil }

func (f *fakeOutbox) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time) error {
	return nil
}

func confirmedReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:         "res-1",
		UserID:     "user-a",
		ConcertID:  100,
		SeatNumber: 5,
		PriceCents: 15000,
		Status:     domain.ReservationStatusConfirmed,
	}
}

func completedPayment() *domain.Payment {
	return &domain.Payment{
		ID:            "pay-1",
		ReservationID: "res-1",
		UserID:        "user-a",
		AmountCents:   15000,
		Status:        domain.PaymentStatusCompleted,
		TransactionID: "fake-txn-1",
	}
}

func TestPublisher_DeliversOnFirstAttempt(t *testing.T) {
	producer := &MockProducer{}
	stats := newCountingMetrics()
	p := NewPublisher(producer, nil, stats, "reservation-completed", 4, time.Millisecond, time.Second, zap.NewNop())

	producer.On("Publish", mock.Anything, "reservation-completed", "res-1", mock.Anything).Return(nil).Once()

	outcome, err := p.Publish(context.Background(), confirmedReservation(), completedPayment(), "Test Concert")

	assert.NoError(t, err)
	assert.True(t, outcome.Delivered)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 1, stats.success["reservation-completed"])
	assert.Equal(t, 0, stats.failure["reservation-completed"])

	assert.Equal(t, "res-1", outcome.Event.ReservationID)
	assert.Equal(t, 5, outcome.Event.SeatNumber)
	assert.Equal(t, int64(15000), outcome.Event.AmountCents)
	assert.Equal(t, "fake-txn-1", outcome.Event.TransactionID)
	assert.Equal(t, "Test Concert", outcome.Event.ConcertTitle)
	assert.False(t, outcome.Event.CompletedAt.IsZero())

	producer.AssertExpectations(t)
}

func TestPublisher_RetriesTransportFailures(t *testing.T) {
	producer := &MockProducer{}
	stats := newCountingMetrics()
	p := NewPublisher(producer, nil, stats, "reservation-completed", 4, time.Millisecond, time.Second, zap.NewNop())

	transportErr := errors.New("broker unreachable")
	producer.On("Publish", mock.Anything, "reservation-completed", "res-1", mock.Anything).Return(transportErr).Twice()
	producer.On("Publish", mock.Anything, "reservation-completed", "res-1", mock.Anything).Return(nil).Once()

	outcome, err := p.Publish(context.Background(), confirmedReservation(), completedPayment(), "Test Concert")

	assert.NoError(t, err)
	assert.True(t, outcome.Delivered)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 1, stats.success["reservation-completed"])
	assert.Equal(t, 2, stats.failure["reservation-completed"])

	producer.AssertExpectations(t)
}

func TestPublisher_ExhaustionParksEventInOutbox(t *testing.T) {
	producer := &MockProducer{}
	stats := newCountingMetrics()
	parked := &fakeOutbox{}
	p := NewPublisher(producer, parked, stats, "reservation-completed", 3, time.Millisecond, time.Second, zap.NewNop())

	producer.On("Publish", mock.Anything, "reservation-completed", "res-1", mock.Anything).Return(errors.New("broker unreachable"))

	outcome, err := p.Publish(context.Background(), confirmedReservation(), completedPayment(), "Test Concert")

	assert.NoError(t, err)
	assert.False(t, outcome.Delivered)
	assert.True(t, outcome.Enqueued)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 3, stats.failure["reservation-completed"])

	assert.Len(t, parked.events, 1)
	assert.Equal(t, "reservation-completed", parked.events[0].Topic)
	assert.Equal(t, "res-1", parked.events[0].Key)

	var event domain.ReservationCompletedEvent
	assert.NoError(t, json.Unmarshal(parked.events[0].Payload, &event))
	assert.Equal(t, "fake-txn-1", event.TransactionID)
}

func TestPublisher_RejectsIncompletePairs(t *testing.T) {
	producer := &MockProducer{}
	p := NewPublisher(producer, nil, newCountingMetrics(), "reservation-completed", 3, time.Millisecond, time.Second, zap.NewNop())
	ctx := context.Background()

	pendingRes := confirmedReservation()
	pendingRes.Status = domain.ReservationStatusPending
	_, err := p.Publish(ctx, pendingRes, completedPayment(), "Test Concert")
	assert.ErrorIs(t, err, domain.ErrEventPreconditions)

	failedPay := completedPayment()
	failedPay.Status = domain.PaymentStatusFailed
	_, err = p.Publish(ctx, confirmedReservation(), failedPay, "Test Concert")
	assert.ErrorIs(t, err, domain.ErrEventPreconditions)

	producer.AssertNotCalled(t, "Publish")
}
