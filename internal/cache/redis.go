package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through cache for concert rows. Seat holds are owned
// by the ledger package and never touched here.
type RedisCache struct {
	client     *redis.Client
	concertTTL time.Duration
}

func NewRedisCache(client *redis.Client, concertTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, concertTTL: concertTTL}
}

func (c *RedisCache) GetConcert(ctx context.Context, concertID int64) (*domain.Concert, error) {
	data, err := c.client.Get(ctx, concertKey(concertID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var concert domain.Concert
	if err := json.Unmarshal(data, &concert); err != nil {
		return nil, err
	}
	return &concert, nil
}

func (c *RedisCache) SetConcert(ctx context.Context, concert *domain.Concert) error {
	payload, err := json.Marshal(concert)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, concertKey(concert.ID), payload, c.concertTTL).Err()
}

func concertKey(concertID int64) string {
	return fmt.Sprintf("cache:concert:%d", concertID)
}
