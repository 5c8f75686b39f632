package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/paydash/internal/core/domain"
)

// Client wraps Redis operations for persisted sessions.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"session_ttl"` // 0 = no expiry
}

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

// NewClientFromRedis wraps an existing go-redis client.
func NewClientFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(name string) string {
	return fmt.Sprintf("paydash:session:%s", name)
}

// LoadSession reads the token pair stored under name. A missing session
// yields an empty pair.
func (c *Client) LoadSession(ctx context.Context, name string) (domain.TokenPair, error) {
	vals, err := c.rdb.HGetAll(ctx, sessionKey(name)).Result()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("hgetall failed: %w", err)
	}
	return domain.TokenPair{
		AccessToken:  vals[fieldAccessToken],
		RefreshToken: vals[fieldRefreshToken],
	}, nil
}

// SaveSession stores the token pair under name, replacing what was there.
func (c *Client) SaveSession(ctx context.Context, name string, pair domain.TokenPair) error {
	key := sessionKey(name)
	if pair.Empty() {
		return c.ClearSession(ctx, name)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		fields := map[string]any{}
		if pair.AccessToken != "" {
			fields[fieldAccessToken] = pair.AccessToken
		}
		if pair.RefreshToken != "" {
			fields[fieldRefreshToken] = pair.RefreshToken
		}
		pipe.HSet(ctx, key, fields)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}

// ClearSession removes the session stored under name.
func (c *Client) ClearSession(ctx context.Context, name string) error {
	if err := c.rdb.Del(ctx, sessionKey(name)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}
