package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"groona_alerts/internal/domain/notification"
	"groona_alerts/internal/infra/logger"
	"groona_alerts/internal/infra/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, items ...notification.Notification) *memstore.NotificationRepository {
	t.Helper()
	repo := memstore.NewNotificationRepository()
	for i := range items {
		require.NoError(t, repo.Create(context.Background(), &items[i]))
	}
	return repo
}

func TestDeleteOpenLeavesOtherStatuses(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 4, 8, 9, 0, 0, 0, time.Local)
	repo := seedStore(t,
		notification.Notification{Type: notification.TypeOverdueTask, Status: notification.StatusOpen, CreatedDate: base},
		notification.Notification{Type: notification.TypeOverdueTask, Status: notification.StatusResolved, CreatedDate: base},
		notification.Notification{Type: notification.TypeWorkloadIssue, Status: notification.StatusOpen, CreatedDate: base.AddDate(0, 0, -3)},
		notification.Notification{Type: notification.TypeMissingTimesheet, Status: notification.StatusDismissed, CreatedDate: base},
		notification.Notification{Type: notification.TypeLowVelocity, Status: notification.StatusResolved, CreatedDate: base},
	)
	svc := NewMaintenanceService(repo, logger.Discard())

	deleted, err := svc.DeleteOpen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	open, err := repo.List(ctx, notification.Filter{Status: notification.StatusOpen})
	require.NoError(t, err)
	assert.Empty(t, open)

	rest, err := repo.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestResetTodayDeletesOnlyTargetedTypesSinceMidnight(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 8, 15, 30, 0, 0, time.Local)
	midnight := time.Date(2026, 4, 8, 0, 0, 0, 0, time.Local)
	repo := seedStore(t,
		notification.Notification{Type: notification.TypeTimesheetLockoutAlarm, Title: "lockout today", CreatedDate: midnight},
		notification.Notification{Type: notification.TypeMissingTimesheetAlert, Title: "missing today", CreatedDate: now.Add(-time.Hour)},
		notification.Notification{Type: notification.TypeTimesheetLockoutAlarm, Title: "lockout yesterday", CreatedDate: midnight.Add(-time.Minute)},
		notification.Notification{Type: notification.TypeMissingTimesheetAlert, Title: "missing last week", CreatedDate: midnight.AddDate(0, 0, -7)},
		notification.Notification{Type: notification.TypeOverdueTask, Title: "overdue today", CreatedDate: now.Add(-time.Hour)},
		notification.Notification{Type: notification.TypeMissingTimesheet, Title: "plain missing today", CreatedDate: now.Add(-time.Hour)},
	)
	svc := NewMaintenanceService(repo, logger.Discard())
	svc.now = func() time.Time { return now }

	deleted, err := svc.ResetToday(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	left, err := repo.List(ctx, notification.Filter{})
	require.NoError(t, err)
	titles := make([]string, 0, len(left))
	for _, n := range left {
		titles = append(titles, n.Title)
	}
	assert.ElementsMatch(t, []string{"lockout yesterday", "missing last week", "overdue today", "plain missing today"}, titles)
}

type failingRepo struct {
	notification.Repository
}

func (failingRepo) DeleteByStatus(context.Context, notification.Status) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestDeleteOpenWrapsStoreErrors(t *testing.T) {
	svc := NewMaintenanceService(failingRepo{}, logger.Discard())
	_, err := svc.DeleteOpen(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAdminMaintenanceRequiresAdmin(t *testing.T) {
	repo := seedStore(t, notification.Notification{Type: notification.TypeOverdueTask})
	admin := NewAdminMaintenance(NewMaintenanceService(repo, logger.Discard()), 42)

	_, err := admin.DeleteOpen(context.Background(), 7)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = admin.ResetToday(context.Background(), 7)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	deleted, err := admin.DeleteOpen(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
