package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/stripe/stripe-go/v82"
)

// StripeGateway charges through Stripe payment intents. The reservation id is
// passed as the Stripe idempotency key, so a retried call after a timeout can
// never issue a second real-world charge.
type StripeGateway struct {
	client   *stripe.Client
	currency string
	timeout  time.Duration
}

func NewStripeGateway(apiKey, currency string, timeout time.Duration) *StripeGateway {
	return &StripeGateway{
		client:   stripe.NewClient(apiKey),
		currency: currency,
		timeout:  timeout,
	}
}

func (g *StripeGateway) Charge(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := validateCharge(payment); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(payment.AmountCents),
		Currency: stripe.String(g.currency),
		Confirm:  stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.IdempotencyKey = stripe.String(payment.ReservationID)

	intent, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	charged := *payment
	charged.Status = domain.PaymentStatusCompleted
	charged.TransactionID = intent.ID
	charged.CompletedAt = time.Now()
	return &charged, nil
}

func mapStripeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrGatewayTimeout
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard || stripeErr.Code == stripe.ErrorCodeCardDeclined {
			return fmt.Errorf("%w: %s", ErrGatewayDeclined, stripeErr.Code)
		}
	}
	return err
}

var _ PaymentGateway = (*StripeGateway)(nil)
