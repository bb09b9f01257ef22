package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/concertbooking/internal/catalog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLedger serializes seat holds on redis SETNX. The hold carries a TTL so
// a crashed process cannot leave a seat stuck; confirmed seats stay protected
// by the reservations table's unique index regardless of the hold's fate.
type RedisLedger struct {
	client  *redis.Client
	catalog catalog.Catalog
	holdTTL time.Duration
}

func NewRedisLedger(client *redis.Client, cat catalog.Catalog, holdTTL time.Duration) *RedisLedger {
	return &RedisLedger{client: client, catalog: cat, holdTTL: holdTTL}
}

func (l *RedisLedger) Hold(ctx context.Context, concertID int64, seatNumber int, userID string) (string, error) {
	if err := checkSeat(ctx, l.catalog, concertID, seatNumber); err != nil {
		return "", err
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, seatHoldKey(concertID, seatNumber), token, l.holdTTL).Result()
	if err != nil {
		return "", fmt.Errorf("acquire seat hold: %w", err)
	}
	if !ok {
		return "", ErrSeatUnavailable
	}
	return token, nil
}

func (l *RedisLedger) Release(ctx context.Context, concertID int64, seatNumber int) error {
	return l.client.Del(ctx, seatHoldKey(concertID, seatNumber)).Err()
}

func checkSeat(ctx context.Context, cat catalog.Catalog, concertID int64, seatNumber int) error {
	if cat == nil {
		return nil
	}
	exists, err := cat.SeatExists(ctx, concertID, seatNumber)
	if err != nil {
		if errors.Is(err, catalog.ErrConcertNotFound) {
			return ErrSeatNotFound
		}
		return err
	}
	if !exists {
		return ErrSeatNotFound
	}
	return nil
}

func seatHoldKey(concertID int64, seatNumber int) string {
	return fmt.Sprintf("hold:concert:%d:seat:%d", concertID, seatNumber)
}

var _ Ledger = (*RedisLedger)(nil)
