package telegram

import (
	"context"
	"errors"
	"fmt"

	"groona_alerts/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Maintainer is the admin-gated maintenance surface the bot drives.
type Maintainer interface {
	DeleteOpen(ctx context.Context, performingAdminID int64) (int64, error)
	ResetToday(ctx context.Context, performingAdminID int64) (int64, error)
}

type adminHandlers struct {
	ctx             context.Context
	maint           Maintainer
	adminTelegramID int64
	logger          *logrus.Entry
}

// RegisterAdminHandlers registers the maintenance commands. Only the
// configured admin may run them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, maint Maintainer, adminTelegramID int64, baseLogger *logrus.Entry) {
	h := &adminHandlers{ctx: ctx, maint: maint, adminTelegramID: adminTelegramID, logger: baseLogger}
	b.Handle("/cleanup_open", h.cleanupOpen)
	b.Handle("/reset_today", h.resetToday)
}

func (h *adminHandlers) cleanupOpen(c telebot.Context) error {
	return h.run(c, "/cleanup_open", "open notifications", h.maint.DeleteOpen)
}

func (h *adminHandlers) resetToday(c telebot.Context) error {
	return h.run(c, "/reset_today", "of today's timesheet alerts", h.maint.ResetToday)
}

func (h *adminHandlers) run(c telebot.Context, command, what string, op func(context.Context, int64) (int64, error)) error {
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send("Error: you are not allowed to run this command.")
	}

	deleted, err := op(h.ctx, c.Sender().ID)
	if err != nil {
		logWithError := handlerLogger.WithError(err)
		if errors.Is(err, app.ErrAdminNotAuthorized) {
			logWithError.Warn("Admin not authorized (service level)")
			return c.Send("Error: you are not allowed to run this command.")
		}
		logWithError.Error("Maintenance command failed")
		return c.Send(fmt.Sprintf("Maintenance failed: %s", err.Error()))
	}

	handlerLogger.WithField("rows_deleted", deleted).Info("Maintenance command completed")
	return c.Send(fmt.Sprintf("Deleted %d %s.", deleted, what))
}
