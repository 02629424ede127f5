// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// Repository is the notification store.
type Repository interface {
	// Create appends a notification, assigning ID and CreatedDate when unset.
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, filter Filter) ([]*Notification, error)

	// DeleteByStatus removes every notification with the given status in one bulk delete.
	DeleteByStatus(ctx context.Context, status Status) (int64, error)
	// DeleteByTypesSince removes notifications of the given types created at or after since.
	DeleteByTypesSince(ctx context.Context, types []Type, since time.Time) (int64, error)
}

// Deduper suppresses repeated alerts for the same condition within a window.
type Deduper interface {
	// FirstSeen returns true the first time key is presented inside the window.
	FirstSeen(ctx context.Context, key string) (bool, error)
	// Forget drops key so the condition is reported again on the next run.
	Forget(ctx context.Context, key string) error
}
