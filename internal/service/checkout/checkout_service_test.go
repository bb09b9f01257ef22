package checkout

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/gateway"
	"github.com/Domenick1991/concertbooking/internal/ledger"
	"github.com/Domenick1991/concertbooking/internal/metrics"
	"github.com/Domenick1991/concertbooking/internal/publisher"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/Domenick1991/concertbooking/internal/service/payment"
	"github.com/Domenick1991/concertbooking/internal/service/reservation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// The tests below wire real services, the memory ledger and the fake gateway
// together and walk the whole flow the way the app does.

type stubCatalog struct {
	concerts map[int64]*domain.Concert
}

func (s *stubCatalog) Concert(ctx context.Context, concertID int64) (*domain.Concert, error) {
	c, ok := s.concerts[concertID]
	if !ok {
		return nil, catalog.ErrConcertNotFound
	}
	return c, nil
}

func (s *stubCatalog) SeatExists(ctx context.Context, concertID int64, seatNumber int) (bool, error) {
	c, err := s.Concert(ctx, concertID)
	if err != nil {
		return false, err
	}
	return c.HasSeat(seatNumber), nil
}

type memReservationRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Reservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{rows: make(map[string]*domain.Reservation)}
}

func (r *memReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ConcertID == res.ConcertID && row.SeatNumber == res.SeatNumber && row.Status == domain.ReservationStatusConfirmed {
			return repository.ErrSeatTaken
		}
	}
	res.CreatedAt = time.Now()
	res.ConfirmedAt = time.Now()
	clone := *res
	r.rows[res.ID] = &clone
	return nil
}

func (r *memReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *memReservationRepo) Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	if row.Status != from {
		return nil, repository.ErrInvalidTransition
	}
	row.Status = to
	clone := *row
	return &clone, nil
}

type memPaymentRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{rows: make(map[string]*domain.Payment)}
}

func (r *memPaymentRepo) CreatePending(ctx context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ReservationID == p.ReservationID {
			return repository.ErrDuplicatePayment
		}
	}
	p.Status = domain.PaymentStatusPending
	p.CreatedAt = time.Now()
	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *memPaymentRepo) GetByReservationID(ctx context.Context, reservationID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ReservationID == reservationID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (r *memPaymentRepo) MarkCompleted(ctx context.Context, id, transactionID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if row.Status != domain.PaymentStatusPending {
		return nil, repository.ErrPaymentAlreadyTerminal
	}
	row.Status = domain.PaymentStatusCompleted
	row.TransactionID = transactionID
	row.CompletedAt = time.Now()
	clone := *row
	return &clone, nil
}

func (r *memPaymentRepo) MarkFailed(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if row.Status != domain.PaymentStatusPending {
		return nil, repository.ErrPaymentAlreadyTerminal
	}
	row.Status = domain.PaymentStatusFailed
	clone := *row
	return &clone, nil
}

type recordingProducer struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	topic   string
	key     string
	payload interface{}
}

func (p *recordingProducer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic: topic, key: key, payload: payload})
	return nil
}

type fixture struct {
	service  *Service
	gateway  *gateway.FakeGateway
	producer *recordingProducer
	registry *prometheus.Registry
	ledger   *ledger.MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	cat := &stubCatalog{concerts: map[int64]*domain.Concert{
		100: {ID: 100, Title: "Test Concert", SeatCount: 50, PriceCents: 15000},
	}}

	seats := ledger.NewMemoryLedger(cat)
	resRepo := newMemReservationRepo()
	payRepo := newMemPaymentRepo()
	gw := gateway.NewFakeGateway()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry, logger)
	producer := &recordingProducer{}
	pub := publisher.NewPublisher(producer, nil, collector, "reservation-completed", 3, time.Millisecond, time.Second, logger)

	resSvc := reservation.NewService(resRepo, seats, cat, logger)
	paySvc := payment.NewService(payRepo, resRepo, gw, 3, time.Millisecond, logger)

	return &fixture{
		service:  NewService(resSvc, paySvc, pub, cat, logger),
		gateway:  gw,
		producer: producer,
		registry: registry,
		ledger:   seats,
	}
}

func counterValue(t *testing.T, registry *prometheus.Registry, name, topic string) float64 {
	t.Helper()
	families, err := registry.Gather()
	assert.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "topic" && label.GetValue() == topic {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCheckout_HappyPathPublishesCompletionEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservationA, err := f.service.Reserve(ctx, "user-a", 100, 5)
	assert.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, reservationA.Status)

	// A concurrent attempt on the same seat is rejected outright.
	_, err = f.service.Reserve(ctx, "user-b", 100, 5)
	assert.ErrorIs(t, err, ledger.ErrSeatUnavailable)

	result, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
	assert.True(t, strings.HasPrefix(result.Payment.TransactionID, "fake-txn-"))

	assert.True(t, result.Outcome.Delivered)
	event := result.Outcome.Event
	assert.Equal(t, reservationA.ID, event.ReservationID)
	assert.Equal(t, 5, event.SeatNumber)
	assert.Equal(t, int64(15000), event.AmountCents)
	assert.Equal(t, "Test Concert", event.ConcertTitle)
	assert.Equal(t, result.Payment.TransactionID, event.TransactionID)

	assert.Len(t, f.producer.messages, 1)
	assert.Equal(t, "reservation-completed", f.producer.messages[0].topic)
	assert.Equal(t, reservationA.ID, f.producer.messages[0].key)

	assert.Equal(t, 1.0, counterValue(t, f.registry, "publish_success_total", "reservation-completed"))
	assert.Equal(t, 0.0, counterValue(t, f.registry, "publish_failure_total", "reservation-completed"))
}

func TestCheckout_DeclinedPaymentFreesTheSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservationA, err := f.service.Reserve(ctx, "user-a", 100, 5)
	assert.NoError(t, err)

	f.gateway.FailWith(gateway.ErrGatewayDeclined)
	result, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)

	assert.ErrorIs(t, err, payment.ErrPaymentFailed)
	assert.Equal(t, domain.PaymentStatusFailed, result.Payment.Status)
	assert.Empty(t, result.Payment.TransactionID)
	assert.Empty(t, f.producer.messages)

	// The compensating cancellation makes the seat reservable again.
	reservationB, err := f.service.Reserve(ctx, "user-b", 100, 5)
	assert.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, reservationB.Status)
}

func TestCheckout_DoublePayReturnsSameTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservationA, err := f.service.Reserve(ctx, "user-a", 100, 5)
	assert.NoError(t, err)

	first, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)
	assert.NoError(t, err)
	second, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)
	assert.NoError(t, err)

	assert.Equal(t, first.Payment.TransactionID, second.Payment.TransactionID)
	assert.Equal(t, 1, f.gateway.ChargeCount())
	// The second call is a no-op: nothing new is published.
	assert.Len(t, f.producer.messages, 1)
}

func TestCheckout_AmountMismatchKeepsReservationConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservationA, err := f.service.Reserve(ctx, "user-a", 100, 5)
	assert.NoError(t, err)

	_, err = f.service.Pay(ctx, reservationA.ID, "user-a", 100)
	assert.ErrorIs(t, err, payment.ErrAmountMismatch)

	// No compensation for a business rejection: the seat stays held and a
	// corrected amount can still settle.
	result, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
}

func TestCheckout_TimeoutRetriesDoNotDoubleCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservationA, err := f.service.Reserve(ctx, "user-a", 100, 5)
	assert.NoError(t, err)

	f.gateway.FailWith(gateway.ErrGatewayTimeout, gateway.ErrGatewayTimeout)
	result, err := f.service.Pay(ctx, reservationA.ID, "user-a", 15000)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, 3, f.gateway.Calls())
	assert.Equal(t, 1, f.gateway.ChargeCount())
}
