package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amcodin/SmartScraper/internal/models"
)

const (
	DefaultTTL    = time.Hour
	DefaultPrefix = "plan_verification"
)

// VerificationCache stores verified results by plan identity.
type VerificationCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisVerificationCache dials addr and returns a cache over it.
func NewRedisVerificationCache(addr, password string, db int, ttl time.Duration, prefix string) (*VerificationCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewVerificationCache(client, ttl, prefix), nil
}

// NewVerificationCache wraps an existing client.
func NewVerificationCache(client *redis.Client, ttl time.Duration, prefix string) *VerificationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &VerificationCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *VerificationCache) key(plan models.Plan) string {
	return fmt.Sprintf("%s:%s", c.prefix, PlanKey(plan))
}

// Ping checks the connection.
func (c *VerificationCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *VerificationCache) Get(ctx context.Context, plan models.Plan) (*models.Verification, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(plan)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var v models.Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached verification: %w", err)
	}
	return &v, true, nil
}

func (c *VerificationCache) Set(ctx context.Context, plan models.Plan, v *models.Verification) error {
	if c == nil || c.client == nil || v == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	return c.client.Set(ctx, c.key(plan), payload, c.ttl).Err()
}

// Invalidate drops the cached result for plan.
func (c *VerificationCache) Invalidate(ctx context.Context, plan models.Plan) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(plan)).Err()
}

func (c *VerificationCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
