package redis

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/bigdata-platform/internal/config"
	ierr "github.com/flexprice/bigdata-platform/internal/errors"
	"github.com/flexprice/bigdata-platform/internal/logger"
	"github.com/gomodule/redigo/redis"
)

// Client owns the connection pool shared by redis backed stores
type Client struct {
	pool   *redis.Pool
	prefix string
	logger *logger.Logger
}

// NewPool builds a redigo pool from configuration without dialling
func NewPool(cfg config.RedisConfig) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		IdleTimeout: cfg.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", cfg.Address,
				redis.DialPassword(cfg.Password),
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewClient wraps an existing pool. Tests pass a pool dialled at miniredis.
func NewClient(pool *redis.Pool, keyPrefix string, logger *logger.Logger) *Client {
	return &Client{
		pool:   pool,
		prefix: keyPrefix,
		logger: logger,
	}
}

// NewClientFromConfig creates the pool and waits until redis answers a PING,
// retrying with exponential backoff up to the configured connect timeout
func NewClientFromConfig(cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	c := NewClient(NewPool(cfg.Redis), cfg.Redis.KeyPrefix, logger)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.Redis.ConnectTimeout

	err := backoff.RetryNotify(
		func() error { return c.Ping(context.Background()) },
		b,
		func(err error, d time.Duration) {
			logger.Warnw("redis not ready, retrying",
				"address", cfg.Redis.Address,
				"error", err,
				"retry_in", d,
			)
		},
	)
	if err != nil {
		_ = c.Close()
		return nil, ierr.WithError(err).
			WithHintf("Could not connect to redis at %s", cfg.Redis.Address).
			Mark(ierr.ErrStoreUnavailable)
	}

	logger.Infow("connected to redis", "address", cfg.Redis.Address, "db", cfg.Redis.DB)
	return c, nil
}

// Conn borrows a connection from the pool, the caller must close it
func (c *Client) Conn(ctx context.Context) (redis.Conn, error) {
	return c.pool.GetContext(ctx)
}

// Key namespaces a key under the configured prefix
func (c *Client) Key(parts ...string) string {
	key := c.prefix
	for _, p := range parts {
		if key == "" {
			key = p
			continue
		}
		key += ":" + p
	}
	return key
}

// Ping checks that redis answers
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

func (c *Client) Close() error {
	return c.pool.Close()
}
