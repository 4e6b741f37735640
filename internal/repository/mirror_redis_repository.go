package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// RedisMirrorRepository stores mirror keys as plain Redis strings under a prefix.
type RedisMirrorRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisMirrorRepository constructs the repository for one namespace prefix.
func NewRedisMirrorRepository(client *redis.Client, prefix string) *RedisMirrorRepository {
	return &RedisMirrorRepository{client: client, prefix: prefix}
}

// Get returns the stored value or ErrMirrorMiss.
func (r *RedisMirrorRepository) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrMirrorMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set stores value without expiry.
func (r *RedisMirrorRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (r *RedisMirrorRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys stored under the prefix.
func (r *RedisMirrorRepository) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan prefix %s: %w", r.prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every key under the prefix.
func (r *RedisMirrorRepository) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan prefix %s: %w", r.prefix, err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisMirrorRepository) Close() error {
	return r.client.Close()
}
