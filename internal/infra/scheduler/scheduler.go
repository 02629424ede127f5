package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"groona_alerts/internal/domain/alerttask"
	"groona_alerts/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Options configure an AlertScheduler.
type Options struct {
	Tasks    []alerttask.Task // launched in this order every tick
	Interval time.Duration
	Stagger  time.Duration
	Guard    RunGuard
	Metrics  *metrics.TaskMetrics
	Logger   *logrus.Entry
	Clock    Clock
}

// AlertScheduler fires a tick every Interval and launches each task at
// tick + i*Stagger. Launches of a task whose previous run has not finished
// are skipped.
type AlertScheduler struct {
	cronEngine *cron.Cron
	tasks      []alerttask.Task
	interval   time.Duration
	stagger    time.Duration
	guard      RunGuard
	metrics    *metrics.TaskMetrics
	logger     *logrus.Entry
	clock      Clock

	ctx    context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

func New(opts Options) (*AlertScheduler, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("tick interval must be positive")
	}
	if opts.Stagger < 0 {
		return nil, errors.New("stagger must not be negative")
	}
	for i, t := range opts.Tasks {
		if t == nil {
			return nil, fmt.Errorf("task %d is nil", i)
		}
	}
	guard := opts.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AlertScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		tasks:      append([]alerttask.Task(nil), opts.Tasks...),
		interval:   opts.Interval,
		stagger:    opts.Stagger,
		guard:      guard,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		clock:      clock,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start registers the recurring tick and starts the cron engine.
func (s *AlertScheduler) Start() {
	s.logger.WithFields(logrus.Fields{
		"interval": s.interval.String(),
		"stagger":  s.stagger.String(),
		"tasks":    len(s.tasks),
	}).Info("Starting alert scheduler")

	s.cronEngine.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.Dispatch(s.ctx)
	}))
	s.cronEngine.Start()
}

// Dispatch runs one tick: it returns once every task has been launched (or
// skipped), without waiting for the runs to finish.
func (s *AlertScheduler) Dispatch(ctx context.Context) {
	tickAt := s.clock.Now()
	tickLog := s.logger.WithField("tick", tickAt.Format(time.RFC3339))
	tickLog.Info("Tick fired, launching alert tasks")
	s.metrics.IncTick()

	for i, task := range s.tasks {
		due := tickAt.Add(time.Duration(i) * s.stagger)
		if wait := due.Sub(s.clock.Now()); wait > 0 {
			if err := s.clock.Sleep(ctx, wait); err != nil {
				tickLog.WithField("remaining", len(s.tasks)-i).Warn("Tick interrupted before all tasks were launched")
				return
			}
		}
		s.launch(ctx, tickLog, task)
	}
}

func (s *AlertScheduler) launch(ctx context.Context, tickLog *logrus.Entry, task alerttask.Task) {
	name := task.Name()
	taskLog := tickLog.WithField("task", name)

	release, ok, err := s.guard.TryAcquire(ctx, name)
	if err != nil {
		taskLog.WithError(err).Error("Could not acquire run lock, task not launched")
		s.metrics.IncFailure(name)
		return
	}
	if !ok {
		taskLog.Warn("Previous run still in progress, skipping launch")
		s.metrics.IncSkipped(name)
		return
	}

	s.metrics.IncLaunched(name)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer func() {
			if relErr := release(context.Background()); relErr != nil {
				taskLog.WithError(relErr).Error("Failed to release run lock")
			}
		}()

		taskLog.Info("Task launched")
		start := time.Now()
		runErr := runSafely(ctx, task)
		elapsed := time.Since(start)
		s.metrics.ObserveDuration(name, elapsed)

		doneLog := taskLog.WithField("duration_ms", elapsed.Milliseconds())
		if runErr != nil {
			doneLog.WithError(runErr).Error("Task failed")
			s.metrics.IncFailure(name)
			return
		}
		doneLog.Info("Task completed")
		s.metrics.IncSuccess(name)
	}()
}

func runSafely(ctx context.Context, task alerttask.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(ctx)
}

// Stop halts the trigger, cancels running tasks and waits for them until ctx is done.
func (s *AlertScheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping alert scheduler...")
	cronCtx := s.cronEngine.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Alert scheduler gracefully stopped.")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running tasks: %w", ctx.Err())
	}
}

// wait blocks until all launched runs have finished.
func (s *AlertScheduler) wait() { s.runs.Wait() }
