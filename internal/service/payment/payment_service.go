package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/gateway"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAmountMismatch means the requested amount does not match the
	// reservation's expected charge. The gateway is never called.
	ErrAmountMismatch = errors.New("amount does not match the reservation price")
	// ErrReservationNotConfirmed means the reservation is not in a payable state.
	ErrReservationNotConfirmed = errors.New("reservation is not confirmed")
	// ErrPaymentFailed is the terminal failure signal. The caller must cancel
	// the reservation so the seat becomes available again.
	ErrPaymentFailed = errors.New("payment failed")
)

type PaymentUseCase interface {
	// ProcessPayment settles the charge for a confirmed reservation. The
	// bool reports whether this call performed the settlement; it is false
	// when an existing terminal payment was replayed, so callers know not to
	// re-publish the completion event.
	ProcessPayment(ctx context.Context, reservationID, userID string, amountCents int64) (*domain.Payment, bool, error)
}

// Service drives the payment state machine against the gateway. The payment
// row is keyed by reservation id, which doubles as the gateway idempotency
// key: retries after a timeout can never issue a second real-world charge.
type Service struct {
	payments     repository.PaymentRepository
	reservations repository.ReservationRepository
	gateway      gateway.PaymentGateway
	maxRetries   int
	backoff      time.Duration
	logger       *zap.Logger
}

func NewService(payments repository.PaymentRepository, reservations repository.ReservationRepository, gw gateway.PaymentGateway, maxRetries int, backoff time.Duration, logger *zap.Logger) *Service {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Service{
		payments:     payments,
		reservations: reservations,
		gateway:      gw,
		maxRetries:   maxRetries,
		backoff:      backoff,
		logger:       logger,
	}
}

func (s *Service) ProcessPayment(ctx context.Context, reservationID, userID string, amountCents int64) (*domain.Payment, bool, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, false, err
	}
	if reservation.Status != domain.ReservationStatusConfirmed {
		return nil, false, ErrReservationNotConfirmed
	}
	if amountCents != reservation.PriceCents {
		return nil, false, ErrAmountMismatch
	}

	pending, terminal, err := s.pendingPayment(ctx, reservationID, userID, amountCents)
	if err != nil || terminal != nil {
		return terminal, false, err
	}

	settled, err := s.charge(ctx, pending)
	return settled, err == nil, err
}

// pendingPayment returns the PENDING payment to charge, or the existing
// terminal payment when the call is a duplicate.
func (s *Service) pendingPayment(ctx context.Context, reservationID, userID string, amountCents int64) (pending, terminal *domain.Payment, err error) {
	existing, err := s.payments.GetByReservationID(ctx, reservationID)
	if err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, nil, err
	}
	if existing == nil {
		payment := &domain.Payment{
			ID:            uuid.NewString(),
			ReservationID: reservationID,
			UserID:        userID,
			AmountCents:   amountCents,
			Status:        domain.PaymentStatusPending,
		}
		createErr := s.payments.CreatePending(ctx, payment)
		if createErr == nil {
			return payment, nil, nil
		}
		if !errors.Is(createErr, repository.ErrDuplicatePayment) {
			return nil, nil, createErr
		}
		// Lost a race with a concurrent call; fall through to the winner's row.
		existing, err = s.payments.GetByReservationID(ctx, reservationID)
		if err != nil {
			return nil, nil, err
		}
	}

	switch existing.Status {
	case domain.PaymentStatusCompleted:
		s.logger.Info("payment already completed",
			zap.String("reservation_id", reservationID),
			zap.String("transaction_id", existing.TransactionID),
		)
		return nil, existing, nil
	case domain.PaymentStatusFailed:
		return nil, existing, ErrPaymentFailed
	default:
		return existing, nil, nil
	}
}

func (s *Service) charge(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		charged, err := s.gateway.Charge(ctx, payment)
		if err == nil {
			return s.complete(ctx, payment, charged.TransactionID)
		}

		lastErr = err
		if !errors.Is(err, gateway.ErrGatewayTimeout) {
			// Declined or otherwise rejected for good: no retry.
			break
		}

		s.logger.Warn("gateway timed out, retrying with same idempotency key",
			zap.String("reservation_id", payment.ReservationID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < s.maxRetries {
			select {
			case <-time.After(time.Duration(attempt) * s.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	failed, err := s.payments.MarkFailed(ctx, payment.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyTerminal) {
			return s.refetchTerminal(ctx, payment.ReservationID)
		}
		return nil, err
	}

	s.logger.Info("payment failed",
		zap.String("reservation_id", payment.ReservationID),
		zap.Error(lastErr),
	)
	return failed, ErrPaymentFailed
}

func (s *Service) complete(ctx context.Context, payment *domain.Payment, transactionID string) (*domain.Payment, error) {
	completed, err := s.payments.MarkCompleted(ctx, payment.ID, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyTerminal) {
			return s.refetchTerminal(ctx, payment.ReservationID)
		}
		return nil, err
	}

	s.logger.Info("payment completed",
		zap.String("reservation_id", payment.ReservationID),
		zap.String("transaction_id", transactionID),
	)
	return completed, nil
}

// refetchTerminal resolves a race where another call already finished the
// payment: the sticky terminal row wins.
func (s *Service) refetchTerminal(ctx context.Context, reservationID string) (*domain.Payment, error) {
	existing, err := s.payments.GetByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.PaymentStatusFailed {
		return existing, ErrPaymentFailed
	}
	return existing, nil
}

var _ PaymentUseCase = (*Service)(nil)
