package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

type listRanger interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisLedgerRepository reads booked dates from a Redis list, in list order.
type RedisLedgerRepository struct {
	client listRanger
	key    string
}

// NewRedisLedgerRepository constructs a Redis-backed ledger reading key.
func NewRedisLedgerRepository(client listRanger, key string) *RedisLedgerRepository {
	return &RedisLedgerRepository{client: client, key: key}
}

func (r *RedisLedgerRepository) Name() string { return config.LedgerRedis }

func (r *RedisLedgerRepository) BookedDates(ctx context.Context) ([]string, error) {
	dates, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", r.key, err)
	}
	return dates, nil
}

// Close releases the underlying Redis connection if the client owns one.
func (r *RedisLedgerRepository) Close() error {
	if closer, ok := r.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
