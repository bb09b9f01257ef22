package catalog

import (
	"context"
	"errors"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/repository"
	"go.uber.org/zap"
)

var ErrConcertNotFound = errors.New("concert not found")

// Catalog answers which seats exist for a concert. It is a collaborator of
// the seat ledger, used only to tell an unknown seat apart from a taken one.
type Catalog interface {
	Concert(ctx context.Context, concertID int64) (*domain.Concert, error)
	SeatExists(ctx context.Context, concertID int64, seatNumber int) (bool, error)
}

type ConcertCache interface {
	GetConcert(ctx context.Context, concertID int64) (*domain.Concert, error)
	SetConcert(ctx context.Context, concert *domain.Concert) error
}

type PGCatalog struct {
	concerts repository.ConcertRepository
	cache    ConcertCache
	logger   *zap.Logger
}

func NewPGCatalog(concerts repository.ConcertRepository, cache ConcertCache, logger *zap.Logger) *PGCatalog {
	return &PGCatalog{concerts: concerts, cache: cache, logger: logger}
}

func (c *PGCatalog) Concert(ctx context.Context, concertID int64) (*domain.Concert, error) {
	if c.cache != nil {
		cached, err := c.cache.GetConcert(ctx, concertID)
		if err != nil {
			c.logger.Warn("concert cache read failed", zap.Int64("concert_id", concertID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	concert, err := c.concerts.GetByID(ctx, concertID)
	if err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return nil, ErrConcertNotFound
		}
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetConcert(ctx, concert); err != nil {
			c.logger.Warn("concert cache write failed", zap.Int64("concert_id", concertID), zap.Error(err))
		}
	}
	return concert, nil
}

func (c *PGCatalog) SeatExists(ctx context.Context, concertID int64, seatNumber int) (bool, error) {
	concert, err := c.Concert(ctx, concertID)
	if err != nil {
		return false, err
	}
	return concert.HasSeat(seatNumber), nil
}

var _ Catalog = (*PGCatalog)(nil)
