package reservation

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/ledger"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUserRequired = errors.New("user id is required")

type ReservationUseCase interface {
	Reserve(ctx context.Context, userID string, concertID int64, seatNumber int) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID string) (*domain.Reservation, error)
	Get(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

// Service creates reservations against the seat ledger. A seat conflict is a
// legitimate business outcome, so there is no retry at this layer.
type Service struct {
	reservations repository.ReservationRepository
	seats        ledger.Ledger
	catalog      catalog.Catalog
	logger       *zap.Logger
}

func NewService(reservations repository.ReservationRepository, seats ledger.Ledger, cat catalog.Catalog, logger *zap.Logger) *Service {
	return &Service{
		reservations: reservations,
		seats:        seats,
		catalog:      cat,
		logger:       logger,
	}
}

func (s *Service) Reserve(ctx context.Context, userID string, concertID int64, seatNumber int) (*domain.Reservation, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}

	concert, err := s.catalog.Concert(ctx, concertID)
	if err != nil {
		if errors.Is(err, catalog.ErrConcertNotFound) {
			return nil, ledger.ErrSeatNotFound
		}
		return nil, err
	}

	token, err := s.seats.Hold(ctx, concertID, seatNumber, userID)
	if err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		ID:         uuid.NewString(),
		UserID:     userID,
		ConcertID:  concertID,
		SeatNumber: seatNumber,
		PriceCents: concert.PriceCents,
		HoldToken:  token,
		Status:     domain.ReservationStatusConfirmed,
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		if releaseErr := s.seats.Release(ctx, concertID, seatNumber); releaseErr != nil {
			s.logger.Warn("seat hold release failed",
				zap.Int64("concert_id", concertID),
				zap.Int("seat_number", seatNumber),
				zap.Error(releaseErr),
			)
		}
		if errors.Is(err, repository.ErrSeatTaken) {
			return nil, ledger.ErrSeatUnavailable
		}
		return nil, err
	}

	s.logger.Info("reservation confirmed",
		zap.String("reservation_id", reservation.ID),
		zap.Int64("concert_id", concertID),
		zap.Int("seat_number", seatNumber),
	)
	return reservation, nil
}

// Cancel releases the seat so it becomes reservable again. Cancelling an
// already cancelled reservation is a no-op.
func (s *Service) Cancel(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.ReservationStatusCancelled {
		return current, nil
	}

	updated, err := s.reservations.Transition(ctx, reservationID, current.Status, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}

	if releaseErr := s.seats.Release(ctx, updated.ConcertID, updated.SeatNumber); releaseErr != nil {
		s.logger.Warn("seat hold release failed",
			zap.String("reservation_id", reservationID),
			zap.Error(releaseErr),
		)
	}

	s.logger.Info("reservation cancelled", zap.String("reservation_id", reservationID))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, reservationID)
}

var _ ReservationUseCase = (*Service)(nil)
