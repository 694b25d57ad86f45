package utils

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls the session store client. Zero durations and sizes
// take the defaults below.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout time.Duration
	IOTimeout   time.Duration
	PoolSize    int
}

const (
	defaultRedisDialTimeout = 3 * time.Second
	defaultRedisIOTimeout   = 2 * time.Second
	defaultRedisPoolSize    = 10
)

func (c RedisConfig) withDefaults() RedisConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultRedisDialTimeout
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = defaultRedisIOTimeout
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultRedisPoolSize
	}
	return c
}

// NewRedisClient builds a client without contacting the server; the first
// command (usually the session store ping) opens the connection.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	cfg = cfg.withDefaults()
	return redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.IOTimeout,
		WriteTimeout:    cfg.IOTimeout,
		PoolSize:        cfg.PoolSize,
		ConnMaxIdleTime: 5 * time.Minute,
	}), nil
}
