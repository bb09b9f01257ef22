package checkout

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/publisher"
	"github.com/Domenick1991/concertbooking/internal/service/payment"
	"go.uber.org/zap"
)

type ReservationService interface {
	Reserve(ctx context.Context, userID string, concertID int64, seatNumber int) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID string) (*domain.Reservation, error)
	Get(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

type PaymentService interface {
	ProcessPayment(ctx context.Context, reservationID, userID string, amountCents int64) (*domain.Payment, bool, error)
}

type CompletionPublisher interface {
	Publish(ctx context.Context, reservation *domain.Reservation, pay *domain.Payment, concertTitle string) (publisher.PublishOutcome, error)
}

// PayResult is what the caller gets back from a settled checkout: the payment
// and how the completion event delivery went.
type PayResult struct {
	Payment *domain.Payment
	Outcome publisher.PublishOutcome
}

// Service chains the use cases: reserve a seat, settle the payment, publish
// the completion event. A terminal payment failure triggers the compensating
// cancellation so no held-but-unpaid seat survives. A publish failure never
// unwinds the committed reservation and payment.
type Service struct {
	reservations ReservationService
	payments     PaymentService
	publisher    CompletionPublisher
	catalog      catalog.Catalog
	logger       *zap.Logger
}

func NewService(reservations ReservationService, payments PaymentService, pub CompletionPublisher, cat catalog.Catalog, logger *zap.Logger) *Service {
	return &Service{
		reservations: reservations,
		payments:     payments,
		publisher:    pub,
		catalog:      cat,
		logger:       logger,
	}
}

func (s *Service) Reserve(ctx context.Context, userID string, concertID int64, seatNumber int) (*domain.Reservation, error) {
	return s.reservations.Reserve(ctx, userID, concertID, seatNumber)
}

func (s *Service) Pay(ctx context.Context, reservationID, userID string, amountCents int64) (*PayResult, error) {
	pay, settled, err := s.payments.ProcessPayment(ctx, reservationID, userID, amountCents)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentFailed) {
			s.compensate(ctx, reservationID)
			return &PayResult{Payment: pay}, err
		}
		return nil, err
	}
	if !settled {
		// Replay of an already completed payment: the event went out the
		// first time, nothing new to publish.
		return &PayResult{Payment: pay}, nil
	}

	reservation, err := s.reservations.Get(ctx, reservationID)
	if err != nil {
		s.logger.Error("reservation lookup failed after payment, event not published",
			zap.String("reservation_id", reservationID),
			zap.Error(err),
		)
		return &PayResult{Payment: pay}, nil
	}

	title := ""
	if concert, err := s.catalog.Concert(ctx, reservation.ConcertID); err == nil {
		title = concert.Title
	} else {
		s.logger.Warn("concert title lookup failed, publishing without it",
			zap.Int64("concert_id", reservation.ConcertID),
			zap.Error(err),
		)
	}

	outcome, err := s.publisher.Publish(ctx, reservation, pay, title)
	if err != nil {
		s.logger.Error("completion event rejected",
			zap.String("reservation_id", reservationID),
			zap.Error(err),
		)
		return &PayResult{Payment: pay}, nil
	}

	return &PayResult{Payment: pay, Outcome: outcome}, nil
}

// compensate cancels the reservation after a terminal payment failure so the
// seat becomes reservable again.
func (s *Service) compensate(ctx context.Context, reservationID string) {
	if _, err := s.reservations.Cancel(ctx, reservationID); err != nil {
		s.logger.Error("compensating cancellation failed",
			zap.String("reservation_id", reservationID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("reservation cancelled after failed payment", zap.String("reservation_id", reservationID))
}
