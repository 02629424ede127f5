// Package memstore keeps the stores in process memory for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"groona_alerts/internal/domain/notification"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	mu    sync.RWMutex
	items []*notification.Notification
	now   func() time.Time
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{now: time.Now}
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedDate.IsZero() {
		n.CreatedDate = r.now()
	}
	if n.Status == "" {
		n.Status = notification.StatusOpen
	}
	stored := *n
	r.mu.Lock()
	r.items = append(r.items, &stored)
	r.mu.Unlock()
	return nil
}

func (r *NotificationRepository) List(_ context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	r.mu.RLock()
	out := make([]*notification.Notification, 0, len(r.items))
	for _, n := range r.items {
		if filter.Matches(n) {
			c := *n
			out = append(out, &c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *NotificationRepository) DeleteByStatus(_ context.Context, status notification.Status) (int64, error) {
	return r.deleteWhere(func(n *notification.Notification) bool { return n.Status == status }), nil
}

func (r *NotificationRepository) DeleteByTypesSince(_ context.Context, types []notification.Type, since time.Time) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	f := notification.Filter{Types: types, Since: since}
	return r.deleteWhere(f.Matches), nil
}

func (r *NotificationRepository) deleteWhere(match func(*notification.Notification) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var deleted int64
	for _, n := range r.items {
		if match(n) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.items = kept
	return deleted
}
