package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groona_alerts/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// MaintenanceService bulk-deletes notifications out of band. Each operation
// is one bulk delete on the store.
type MaintenanceService struct {
	notifRepo notification.Repository
	logger    *logrus.Entry
	now       func() time.Time
}

func NewMaintenanceService(nr notification.Repository, logger *logrus.Entry) *MaintenanceService {
	return &MaintenanceService{notifRepo: nr, logger: logger, now: time.Now}
}

// DeleteOpen removes every OPEN notification.
func (s *MaintenanceService) DeleteOpen(ctx context.Context) (int64, error) {
	deleted, err := s.notifRepo.DeleteByStatus(ctx, notification.StatusOpen)
	if err != nil {
		return 0, fmt.Errorf("failed to delete open notifications: %w", err)
	}
	s.logger.WithField("rows_deleted", deleted).Info("Deleted open notifications")
	return deleted, nil
}

// ResetToday removes today's lockout and missing-timesheet alerts, counting
// from local midnight.
func (s *MaintenanceService) ResetToday(ctx context.Context) (int64, error) {
	since := notification.StartOfDay(s.now())
	deleted, err := s.notifRepo.DeleteByTypesSince(ctx, notification.DailyResetTypes, since)
	if err != nil {
		return 0, fmt.Errorf("failed to reset today's notifications: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"rows_deleted": deleted,
		"since":        since.Format(time.RFC3339),
	}).Info("Reset today's timesheet alerts")
	return deleted, nil
}

// AdminMaintenance gates MaintenanceService behind the configured admin ID.
type AdminMaintenance struct {
	svc             *MaintenanceService
	adminTelegramID int64
}

func NewAdminMaintenance(svc *MaintenanceService, adminID int64) *AdminMaintenance {
	return &AdminMaintenance{svc: svc, adminTelegramID: adminID}
}

func (a *AdminMaintenance) DeleteOpen(ctx context.Context, performingAdminID int64) (int64, error) {
	if performingAdminID != a.adminTelegramID {
		return 0, ErrAdminNotAuthorized
	}
	return a.svc.DeleteOpen(ctx)
}

func (a *AdminMaintenance) ResetToday(ctx context.Context, performingAdminID int64) (int64, error) {
	if performingAdminID != a.adminTelegramID {
		return 0, ErrAdminNotAuthorized
	}
	return a.svc.ResetToday(ctx)
}
