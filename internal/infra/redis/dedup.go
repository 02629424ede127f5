package redis

import (
	"context"
	"time"
)

// Deduper remembers alert keys for a window using SET NX.
type Deduper struct {
	store Store
	ttl   time.Duration
}

func NewDeduper(store Store, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{store: store, ttl: ttl}
}

// FirstSeen reports whether key was not recorded within the window. On a
// Redis error the alert is let through and the error returned for logging.
func (d *Deduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.store.SetNX(ctx, Key("dedup", key), 1, d.ttl)
	if err != nil {
		return true, err
	}
	return ok, nil
}

func (d *Deduper) Forget(ctx context.Context, key string) error {
	return d.store.Del(ctx, Key("dedup", key))
}
