package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestTickIntervalMapping(t *testing.T) {
	got, err := ModeTesting.TickInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, got)

	got, err = ModeProduction.TickInterval()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, got)

	_, err = SchedulerMode("hourly").TickInterval()
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"DATABASE_URL": "postgres://localhost/groona"}))
	require.NoError(t, err)

	assert.Equal(t, ModeProduction, cfg.Scheduler.Mode)
	assert.Equal(t, 8*time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.Stagger)
	assert.Equal(t, DefaultTasks, cfg.Scheduler.Tasks)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "resend", cfg.Email.Provider)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, 10, cfg.WorkloadLimit)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestFromEnvTestingModeAndTaskList(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"SCHEDULER_MODE": "Testing",
		"STORE_DRIVER":   "memory",
		"ALERT_TASKS":    " overdue_tasks, exec:low_velocity ,,",
		"ALERT_STAGGER":  "500ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.Stagger)
	assert.Equal(t, []string{"overdue_tasks", "exec:low_velocity"}, cfg.Scheduler.Tasks)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{}},
		{"unknown mode", map[string]string{"STORE_DRIVER": "memory", "SCHEDULER_MODE": "weekly"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"token without admin", map[string]string{"STORE_DRIVER": "memory", "TELEGRAM_TOKEN": "t"}},
		{"bad admin id", map[string]string{"STORE_DRIVER": "memory", "TELEGRAM_TOKEN": "t", "ADMIN_TELEGRAM_ID": "abc"}},
		{"negative stagger", map[string]string{"STORE_DRIVER": "memory", "ALERT_STAGGER": "-1s"}},
		{"bad provider", map[string]string{"STORE_DRIVER": "memory", "EMAIL_PROVIDER": "sendgrid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestRequireEmail(t *testing.T) {
	assert.Error(t, EmailConfig{Provider: "resend"}.RequireEmail())
	assert.Error(t, EmailConfig{Provider: "resend", From: "noreply@groona.app"}.RequireEmail())
	assert.NoError(t, EmailConfig{Provider: "resend", From: "noreply@groona.app", ResendAPIKey: "re_x"}.RequireEmail())
	assert.Error(t, EmailConfig{Provider: "smtp", From: "noreply@groona.app", SMTPHost: "smtp"}.RequireEmail())
}
