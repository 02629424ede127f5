package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLeaseTTL = 2 * time.Minute

// TaskLease is a per-task run lock stored in Redis with SET NX and a TTL.
// While a run holds the lease it is renewed every ttl/3, so long runs keep
// it and a crashed holder loses it within one TTL. Each acquisition gets its
// own owner token; renewal and release only touch the key while it still
// holds that token.
type TaskLease struct {
	store Store
	env   string
	ttl   time.Duration
}

func NewTaskLease(store Store, env string, ttl time.Duration) (*TaskLease, error) {
	if store == nil {
		return nil, errors.New("redis store required for lease")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	if env == "" {
		env = "local"
	}
	return &TaskLease{store: store, env: env, ttl: ttl}, nil
}

func (l *TaskLease) key(task string) string {
	return Key("alerts", l.env, "lease", task)
}

// TryAcquire returns a release func when the lease for task was free.
func (l *TaskLease) TryAcquire(ctx context.Context, task string) (func(context.Context) error, bool, error) {
	owner := uuid.NewString()
	key := l.key(task)
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	renewCtx, stopRenew := context.WithCancel(context.Background())
	var renewing sync.WaitGroup
	renewing.Add(1)
	go func() {
		defer renewing.Done()
		l.renew(renewCtx, key, owner)
	}()

	var once sync.Once
	release := func(ctx context.Context) error {
		var err error
		once.Do(func() {
			stopRenew()
			renewing.Wait()
			if _, delErr := l.store.DeleteIfOwner(ctx, key, owner); delErr != nil {
				err = fmt.Errorf("delete lease: %w", delErr)
			}
		})
		return err
	}
	return release, true, nil
}

// renew extends the lease until ctx is cancelled or the token is gone.
// Transient errors are retried on the next beat.
func (l *TaskLease) renew(ctx context.Context, key, owner string) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			held, err := l.store.ExpireIfOwner(ctx, key, owner, l.ttl)
			if err == nil && !held {
				return
			}
		}
	}
}
