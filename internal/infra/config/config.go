package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SchedulerMode selects one of the two fixed tick cadences.
type SchedulerMode string

const (
	ModeTesting    SchedulerMode = "testing"
	ModeProduction SchedulerMode = "production"
)

var ErrInvalidMode = errors.New("invalid scheduler mode")

// DefaultTasks is the ordered built-in task list used when ALERT_TASKS is unset.
var DefaultTasks = []string{"overdue_tasks", "missing_timesheets", "workload_issues"}

// TickInterval maps a mode to its cadence.
func (m SchedulerMode) TickInterval() (time.Duration, error) {
	switch m {
	case ModeTesting:
		return time.Minute, nil
	case ModeProduction:
		return 8 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
}

type SchedulerConfig struct {
	Mode     SchedulerMode
	Interval time.Duration
	Stagger  time.Duration
	Tasks    []string // ordered; "exec:<name>" entries run programs from TaskDir
	TaskDir  string
}

type StoreConfig struct {
	Driver      string // "postgres" or "memory"
	DatabaseURL string
}

type EmailConfig struct {
	Provider      string // "resend" or "smtp"
	From          string
	ResendAPIKey  string
	ResendBaseURL string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
}

type TelegramConfig struct {
	Token           string
	AdminTelegramID int64
}

// AppConfig holds all configuration for the application. It is assembled
// once at startup and handed to each component.
type AppConfig struct {
	LogLevel    string
	Environment string
	HTTPAddr    string
	APIToken    string
	RedisURL    string

	Scheduler SchedulerConfig
	Store     StoreConfig
	Email     EmailConfig
	Telegram  TelegramConfig

	WorkloadLimit int
	OTPTTL        time.Duration
	DedupTTL      time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	cfg.HTTPAddr = withDefault(getenv("HTTP_ADDR"), ":8080")
	cfg.APIToken = getenv("API_TOKEN")
	cfg.RedisURL = getenv("REDIS_URL")

	// Scheduler
	cfg.Scheduler.Mode = SchedulerMode(strings.ToLower(withDefault(getenv("SCHEDULER_MODE"), string(ModeProduction))))
	cfg.Scheduler.Interval, err = cfg.Scheduler.Mode.TickInterval()
	if err != nil {
		return nil, err
	}
	cfg.Scheduler.Stagger, err = durationOr(getenv("ALERT_STAGGER"), 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_STAGGER: %w", err)
	}
	if cfg.Scheduler.Stagger < 0 {
		return nil, fmt.Errorf("invalid ALERT_STAGGER: must not be negative")
	}
	cfg.Scheduler.Tasks = splitList(getenv("ALERT_TASKS"))
	if len(cfg.Scheduler.Tasks) == 0 {
		cfg.Scheduler.Tasks = append([]string(nil), DefaultTasks...)
	}
	cfg.Scheduler.TaskDir = withDefault(getenv("ALERT_TASK_DIR"), "./alerts")

	// Store
	cfg.Store.Driver = strings.ToLower(withDefault(getenv("STORE_DRIVER"), "postgres"))
	cfg.Store.DatabaseURL = getenv("DATABASE_URL")
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	// Email
	cfg.Email.Provider = strings.ToLower(withDefault(getenv("EMAIL_PROVIDER"), "resend"))
	cfg.Email.From = getenv("EMAIL_FROM")
	cfg.Email.ResendAPIKey = getenv("RESEND_API_KEY")
	cfg.Email.ResendBaseURL = withDefault(getenv("RESEND_BASE_URL"), "https://api.resend.com")
	cfg.Email.SMTPHost = getenv("SMTP_HOST")
	cfg.Email.SMTPUsername = getenv("SMTP_USERNAME")
	cfg.Email.SMTPPassword = getenv("SMTP_PASSWORD")
	if portStr := getenv("SMTP_PORT"); portStr != "" {
		cfg.Email.SMTPPort, err = strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
	} else {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Email.Provider != "resend" && cfg.Email.Provider != "smtp" {
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Email.Provider)
	}

	// Telegram admin bot is optional.
	cfg.Telegram.Token = getenv("TELEGRAM_TOKEN")
	if cfg.Telegram.Token != "" {
		adminIDStr := getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
		}
		cfg.Telegram.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.WorkloadLimit = 10
	if v := getenv("OVERDUE_WORKLOAD_LIMIT"); v != "" {
		cfg.WorkloadLimit, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OVERDUE_WORKLOAD_LIMIT: %w", err)
		}
	}
	cfg.OTPTTL, err = durationOr(getenv("OTP_TTL"), 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP_TTL: %w", err)
	}
	cfg.DedupTTL, err = durationOr(getenv("DEDUP_TTL"), 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid DEDUP_TTL: %w", err)
	}

	return cfg, nil
}

// RequireEmail validates the settings the selected provider needs.
func (c EmailConfig) RequireEmail() error {
	if c.From == "" {
		return fmt.Errorf("EMAIL_FROM is not set")
	}
	switch c.Provider {
	case "resend":
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is not set")
		}
	case "smtp":
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("missing SMTP configuration: SMTP_HOST, SMTP_USERNAME or SMTP_PASSWORD is empty")
		}
	}
	return nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
