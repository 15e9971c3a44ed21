package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisRepository struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
}

func NewRedisRepository(rdb *redis.Client, key string, logger *zap.Logger) *RedisRepository {
	return &RedisRepository{
		rdb:    rdb,
		key:    key,
		logger: logger,
	}
}

func (r *RedisRepository) Backend() string { return "redis" }

func (r *RedisRepository) Load(ctx context.Context) ([]byte, error) {
	r.logger.Debug("Reading habit collection", zap.String("key", r.key))

	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to read habit collection", zap.String("key", r.key), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Save replaces the whole document; no expiry.
func (r *RedisRepository) Save(ctx context.Context, data []byte) error {
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		r.logger.Error("Failed to write habit collection", zap.String("key", r.key), zap.Error(err))
		return err
	}

	r.logger.Debug("Habit collection written",
		zap.String("key", r.key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
