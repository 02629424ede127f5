package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands registers /start and /help.
func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")
	b.Handle("/start", startHandler(adminTelegramID, startHelpLogger))
	b.Handle("/help", helpHandler(adminTelegramID, startHelpLogger))
}

func startHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logCtx := logger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")

		if c.Sender().ID == adminTelegramID {
			return c.Send(fmt.Sprintf("Hi %s! The alert scheduler is running. Use /help for the command list.", c.Sender().FirstName))
		}
		logCtx.Info("User is not the admin")
		return c.Send("This bot only serves the Groona alert administrator.")
	}
}

func helpHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logCtx := logger.WithField("command", "/help").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /help command")

		if c.Sender().ID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}
		var helpText strings.Builder
		helpText.WriteString("Admin commands:\n\n")
		helpText.WriteString("`/cleanup_open`\n - Delete every OPEN notification.\n\n")
		helpText.WriteString("`/reset_today`\n - Delete today's timesheet lockout and missing timesheet alerts.\n\n")
		helpText.WriteString("`/help`\n - Show this message.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}
}
