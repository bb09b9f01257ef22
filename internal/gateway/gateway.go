package gateway

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/domain"
)

var (
	// ErrGatewayTimeout is transient. The caller may retry with the same
	// idempotency key.
	ErrGatewayTimeout = errors.New("payment gateway timed out")
	// ErrGatewayDeclined is terminal. The caller must fail the payment.
	ErrGatewayDeclined = errors.New("payment declined by gateway")
	// ErrInvalidCharge means the input payment was not PENDING with a
	// positive amount.
	ErrInvalidCharge = errors.New("charge requires a PENDING payment with a positive amount")
)

// PaymentGateway charges an amount for a reservation. Implementations must
// deduplicate by the payment's reservation id so retries never double-charge.
type PaymentGateway interface {
	Charge(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
}

func validateCharge(payment *domain.Payment) error {
	if payment == nil || payment.Status != domain.PaymentStatusPending || payment.AmountCents <= 0 {
		return ErrInvalidCharge
	}
	return nil
}
