package database

import (
	"context"
	"fmt"
	"time"

	"store-service/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisDialTimeout = 5 * time.Second

// RedisDB is a checked redis connection plus the prefix every store key lives under
type RedisDB struct {
	Client    *redis.Client
	KeyPrefix string
}

func NewRedisDB(cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	opt, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", opt.Addr, err)
	}

	logger.Info("Redis connection established",
		zap.String("addr", opt.Addr),
		zap.Int("db", opt.DB),
		zap.String("key_prefix", cfg.KeyPrefix),
	)

	return &RedisDB{Client: client, KeyPrefix: cfg.KeyPrefix}, nil
}

// redisOptions applies REDIS_PASSWORD and REDIS_DB over whatever the URL carries
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}
	opt.DialTimeout = redisDialTimeout
	return opt, nil
}

func (r *RedisDB) Close() error {
	return r.Client.Close()
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
