package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/google/uuid"
)

// FakeGateway completes charges immediately with a synthetic transaction id.
// It deduplicates by reservation id like the real gateway and can be scripted
// to fail a fixed number of times, which lets the rest of the pipeline be
// exercised deterministically.
type FakeGateway struct {
	mu       sync.Mutex
	scripted []error
	charges  map[string]string
	calls    int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{charges: make(map[string]string)}
}

// FailWith queues errors to be returned by the next Charge calls, in order,
// before the gateway goes back to succeeding.
func (g *FakeGateway) FailWith(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripted = append(g.scripted, errs...)
}

func (g *FakeGateway) Charge(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := validateCharge(payment); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	if len(g.scripted) > 0 {
		err := g.scripted[0]
		g.scripted = g.scripted[1:]
		return nil, err
	}

	txn, ok := g.charges[payment.ReservationID]
	if !ok {
		txn = "fake-txn-" + uuid.NewString()
		g.charges[payment.ReservationID] = txn
	}

	charged := *payment
	charged.Status = domain.PaymentStatusCompleted
	charged.TransactionID = txn
	charged.CompletedAt = time.Now()
	return &charged, nil
}

// Calls reports how many Charge invocations reached the gateway.
func (g *FakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// ChargeCount reports how many distinct reservations were actually charged.
func (g *FakeGateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charges)
}

var _ PaymentGateway = (*FakeGateway)(nil)
