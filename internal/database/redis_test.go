package database

import (
	"testing"

	"store-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		addr     string
		password string
		db       int
	}{
		{
			name: "url only",
			cfg:  config.RedisConfig{URL: "redis://:secret@cache:6380/2"},
			addr: "cache:6380", password: "secret", db: 2,
		},
		{
			name: "explicit settings win",
			cfg:  config.RedisConfig{URL: "redis://:secret@cache:6380/2", Password: "override", DB: 5},
			addr: "cache:6380", password: "override", db: 5,
		},
		{
			name: "zero db keeps the url db",
			cfg:  config.RedisConfig{URL: "redis://localhost:6379/3"},
			addr: "localhost:6379", db: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := redisOptions(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.addr, opt.Addr)
			assert.Equal(t, tt.password, opt.Password)
			assert.Equal(t, tt.db, opt.DB)
			assert.Equal(t, redisDialTimeout, opt.DialTimeout)
		})
	}
}

func TestNewRedisDB_RejectsBadURL(t *testing.T) {
	_, err := NewRedisDB(config.RedisConfig{URL: "http://not-redis"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
