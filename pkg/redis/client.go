package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"habitkeeper/config"
)

// NewRedisClient dials and pings; the caller owns Close.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error("redis_connection_failed",
			zap.Error(err),
			zap.String("addr", cfg.Addr),
		)
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis_connected", zap.String("addr", cfg.Addr))
	return rdb, nil
}
