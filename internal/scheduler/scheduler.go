// Package scheduler runs the periodic dataset refresh and quality checks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobRefresh = "dataset_refresh"
	JobQuality = "quality_check"
)

type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Jobs never overlap with themselves and a
// panicking job is logged instead of taking the process down.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	jobs   map[string]cron.Job
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{sugar: logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.Job),
	}
}

// Add registers fn under name on the given cron spec.
func (s *Scheduler) Add(name, spec string, fn Job) error {
	if fn == nil {
		return fmt.Errorf("scheduler: job %q has no function", name)
	}
	job := cron.FuncJob(func() { s.run(name, fn) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("scheduler: job %q spec %q: %w", name, spec, err)
	}
	s.jobs[name] = job
	return nil
}

// RunNow runs a registered job in the calling goroutine.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	job.Run()
	return nil
}

func (s *Scheduler) run(name string, fn Job) {
	start := time.Now()
	err := fn(s.ctx)
	fields := []zap.Field{zap.String("job", name), zap.Duration("took", time.Since(start))}
	switch {
	case err == nil:
		s.logger.Info("[Scheduler] job done", fields...)
	case errors.Is(err, usecase.ErrRefreshInProgress), errors.Is(err, context.Canceled):
		s.logger.Info("[Scheduler] job skipped", append(fields, zap.Error(err))...)
	default:
		s.logger.Error("[Scheduler] job failed", append(fields, zap.Error(err))...)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("[Scheduler] started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("[Scheduler] stopped")
	case <-ctx.Done():
		s.logger.Warn("[Scheduler] stop timed out", zap.Error(ctx.Err()))
	}
}

type Refresher interface {
	Refresh(ctx context.Context) (usecase.RefreshResult, error)
}

// RefreshJob reloads the dataset from its sources.
func RefreshJob(r Refresher) Job {
	return func(ctx context.Context) error {
		_, err := r.Refresh(ctx)
		return err
	}
}

type QualityChecker interface {
	Check(ctx context.Context) (quality.QuickReport, bool)
}

// QualityJob samples the served dataset. Alerts are raised by the checker.
func QualityJob(c QualityChecker) Job {
	return func(ctx context.Context) error {
		c.Check(ctx)
		return nil
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw("[Cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw("[Cron] "+msg, append(keysAndValues, "error", err)...)
}
