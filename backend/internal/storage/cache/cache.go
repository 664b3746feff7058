// Package cache is the redis backed read-through cache for category lists.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ebrain/board/backend/internal/service"
	"github.com/ebrain/board/shared/domain"
)

const keyPrefix = "categories:"

// DefaultTTL applies when the configured TTL is zero.
const DefaultTTL = 10 * time.Minute

type Categories struct {
	client *redis.Client
	ttl    time.Duration
}

var _ service.CategoryCache = (*Categories)(nil)

func New(client *redis.Client, ttl time.Duration) *Categories {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Categories{client: client, ttl: ttl}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func key(kind domain.BoardKind) string {
	return keyPrefix + string(kind)
}

// Get returns (nil, false, nil) on a miss.
func (c *Categories) Get(ctx context.Context, kind domain.BoardKind) ([]domain.Category, bool, error) {
	s, err := c.client.Get(ctx, key(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var categories []domain.Category
	if err := json.Unmarshal([]byte(s), &categories); err != nil {
		return nil, false, fmt.Errorf("decode cached categories: %w", err)
	}
	return categories, true, nil
}

func (c *Categories) Set(ctx context.Context, kind domain.BoardKind, categories []domain.Category) error {
	b, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(kind), b, c.ttl).Err()
}

// Invalidate drops the cached list of one kind.
func (c *Categories) Invalidate(ctx context.Context, kind domain.BoardKind) error {
	return c.client.Del(ctx, key(kind)).Err()
}
