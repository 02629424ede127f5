package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groona_alerts/internal/app"
	"groona_alerts/internal/domain/notification"
	"groona_alerts/internal/domain/workitem"
	"groona_alerts/internal/infra/config"
	idb "groona_alerts/internal/infra/database"
	"groona_alerts/internal/infra/httpapi"
	"groona_alerts/internal/infra/logger"
	imail "groona_alerts/internal/infra/mail"
	"groona_alerts/internal/infra/memstore"
	"groona_alerts/internal/infra/metrics"
	iredis "groona_alerts/internal/infra/redis"
	"groona_alerts/internal/infra/scheduler"
	"groona_alerts/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"mode":        cfg.Scheduler.Mode,
		"interval":    cfg.Scheduler.Interval.String(),
		"store":       cfg.Store.Driver,
		"environment": cfg.Environment,
	}).Info("Groona alert scheduler starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		notifRepo notification.Repository
		workRepo  workitem.Repository
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err := idb.NewPostgresConnection(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		if err := idb.EnsureSchema(ctx, db); err != nil {
			mainLogger.WithError(err).Fatal("Could not prepare database schema")
		}
		notifRepo = idb.NewPostgresNotificationRepository(db)
		workRepo = idb.NewPostgresWorkItemRepository(db)
		mainLogger.Info("Database connection established")
	default:
		notifRepo = memstore.NewNotificationRepository()
		workRepo = memstore.NewWorkItemRepository()
		mainLogger.Warn("Using in-memory store; notifications are lost on restart")
	}

	var (
		guard   scheduler.RunGuard = scheduler.NewMemoryGuard()
		deduper notification.Deduper
		otp     httpapi.CodeIssuer
	)
	if cfg.RedisURL != "" {
		redisClient, err := iredis.New(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to redis")
		}
		defer redisClient.Close()

		lease, err := iredis.NewTaskLease(redisClient, cfg.Environment, 0)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create task lease")
		}
		guard = lease
		deduper = iredis.NewDeduper(redisClient, cfg.DedupTTL)

		if sender, err := imail.NewSender(cfg.Email); err != nil {
			mainLogger.WithError(err).Warn("Email is not configured; sign-in codes are disabled")
		} else {
			otp = app.NewOTPService(iredis.NewOTPStore(redisClient), sender, cfg.Email.From, cfg.OTPTTL, logger.Component("otp"))
		}
		mainLogger.Info("Redis connected; using distributed task lease and alert dedup")
	}

	taskMetrics := metrics.NewTaskMetrics(prometheus.DefaultRegisterer)

	generators := app.NewAlertGenerators(workRepo, notifRepo, deduper, logger.Component("generators"), cfg.WorkloadLimit)
	registry := scheduler.NewRegistry(generators.Tasks()...)
	tasks, err := registry.Resolve(cfg.Scheduler.Tasks, scheduler.ExecSettings{
		Dir:    cfg.Scheduler.TaskDir,
		Env:    execEnv(cfg),
		Logger: logger.Component("exec"),
	})
	if err != nil {
		mainLogger.WithError(err).WithField("known_tasks", registry.Names()).Fatal("Could not resolve alert tasks")
	}

	alertScheduler, err := scheduler.New(scheduler.Options{
		Tasks:    tasks,
		Interval: cfg.Scheduler.Interval,
		Stagger:  cfg.Scheduler.Stagger,
		Guard:    guard,
		Metrics:  taskMetrics,
		Logger:   logger.Component("scheduler"),
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create scheduler")
	}
	alertScheduler.Start()

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Notifications: notifRepo,
			OTP:           otp,
			Gatherer:      prometheus.DefaultGatherer,
			APIToken:      cfg.APIToken,
			Environment:   cfg.Environment,
			Logger:        logger.Component("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.APIToken == "" {
		mainLogger.Warn("API_TOKEN is not set; /notifications is open and must stay on an internal network")
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	var bot *telebot.Bot
	if cfg.Telegram.Token != "" {
		bot, err = newAdminBot(ctx, cfg, notifRepo)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		go bot.Start()
		mainLogger.Info("Telegram admin bot started")
	}

	<-ctx.Done()
	mainLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if bot != nil {
		bot.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	if err := alertScheduler.Stop(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("Alert tasks still running at shutdown")
	}
	mainLogger.Info("Shut down gracefully")
}

func newAdminBot(ctx context.Context, cfg *config.AppConfig, notifRepo notification.Repository) (*telebot.Bot, error) {
	botLogger := logger.Component("telegram")
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	})
	if err != nil {
		return nil, err
	}
	maint := app.NewAdminMaintenance(app.NewMaintenanceService(notifRepo, logger.Component("maintenance")), cfg.Telegram.AdminTelegramID)
	telegram.RegisterBotCommands(bot, cfg.Telegram.AdminTelegramID, botLogger)
	telegram.RegisterAdminHandlers(ctx, bot, maint, cfg.Telegram.AdminTelegramID, botLogger)
	return bot, nil
}

// execEnv is the whole environment an exec task sees.
func execEnv(cfg *config.AppConfig) []string {
	env := []string{"PATH=" + os.Getenv("PATH")}
	if cfg.Store.DatabaseURL != "" {
		env = append(env, "DATABASE_URL="+cfg.Store.DatabaseURL)
	}
	return env
}
