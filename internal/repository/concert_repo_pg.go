package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConcertNotFound = errors.New("concert not found")

type ConcertRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Concert, error)
}

type PGConcertRepository struct {
	db *pgxpool.Pool
}

func NewConcertRepository(db *pgxpool.Pool) ConcertRepository {
	return &PGConcertRepository{db: db}
}

func (r *PGConcertRepository) GetByID(ctx context.Context, id int64) (*domain.Concert, error) {
	row := r.db.QueryRow(ctx, `SELECT id, title, seat_count, price_cents, starts_at, created_at, updated_at FROM concerts WHERE id=$1`, id)
	var c domain.Concert
	if err := row.Scan(&c.ID, &c.Title, &c.SeatCount, &c.PriceCents, &c.StartsAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConcertNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ ConcertRepository = (*PGConcertRepository)(nil)
