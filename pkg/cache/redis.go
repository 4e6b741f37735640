package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/tutor-billing/pkg/config"
)

const pingTimeout = 5 * time.Second

// Client is a Redis connection whose keys all live under one application
// prefix. Keyspace splits that prefix further so the business mirror and
// the credential store never see each other's keys.
type Client struct {
	*redis.Client
	prefix string
}

// NewRedis connects and pings Redis. prefix is normalised to end in ':'.
func NewRedis(ctx context.Context, cfg config.RedisConfig, prefix string) (*Client, error) {
	raw := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := raw.Ping(pingCtx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Client{Client: raw, prefix: normalizePrefix(prefix)}, nil
}

// Keyspace returns the key prefix reserved for name, e.g. "tutorbill:mirror:".
func (c *Client) Keyspace(name string) string {
	return c.prefix + normalizePrefix(name)
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasSuffix(p, ":") {
		return p
	}
	return p + ":"
}
