package redis

import (
	"context"
	"time"
)

// Store is the subset of Client used by leases, dedup and the OTP code store.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DeleteIfOwner(ctx context.Context, key, owner string) (bool, error)
	ExpireIfOwner(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

var _ Store = (*Client)(nil)
