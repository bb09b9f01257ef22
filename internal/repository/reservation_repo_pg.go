package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrSeatTaken surfaces the partial unique index on (concert_id, seat_number)
	// for CONFIRMED rows as a typed conflict instead of a raw pg error.
	ErrSeatTaken = errors.New("seat already confirmed for this concert")
	// ErrInvalidTransition means the row was not in the expected source status.
	ErrInvalidTransition = errors.New("reservation is not in the expected status")
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (id, user_id, concert_id, seat_number, price_cents, hold_token, status, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING created_at, confirmed_at`,
		reservation.ID, reservation.UserID, reservation.ConcertID, reservation.SeatNumber, reservation.PriceCents, reservation.HoldToken, reservation.Status).
		Scan(&reservation.CreatedAt, &reservation.ConfirmedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSeatTaken
		}
		return err
	}
	return nil
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT id, user_id, concert_id, seat_number, price_cents, hold_token, status, created_at, confirmed_at FROM reservations WHERE id=$1`, id)
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.UserID, &res.ConcertID, &res.SeatNumber, &res.PriceCents, &res.HoldToken, &res.Status, &res.CreatedAt, &res.ConfirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// Transition moves a reservation between statuses with the source status as a
// guard, so terminal rows stay immutable even under concurrent updates.
func (r *PGReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations SET status=$1 WHERE id=$2 AND status=$3
		RETURNING id, user_id, concert_id, seat_number, price_cents, hold_token, status, created_at, confirmed_at`, to, id, from)
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.UserID, &res.ConcertID, &res.SeatNumber, &res.PriceCents, &res.HoldToken, &res.Status, &res.CreatedAt, &res.ConfirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return &res, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
