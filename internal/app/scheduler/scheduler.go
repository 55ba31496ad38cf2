// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/usecase"
)

// Job is a unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps a seconds-resolution cron. Runs of the same job never overlap.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  zerolog.Logger
}

// New creates a scheduler. Jobs receive ctx, so cancelling it aborts running jobs.
func New(ctx context.Context, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx: ctx,
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// AddJob registers job on schedule, e.g. "0 */4 * * * *" or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("register %s: %w", job.Name(), err)
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	err := job.Run(s.ctx)
	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("job finished")
	return err
}

// WarmJob runs a cache warm pass with a per-run deadline.
type WarmJob struct {
	uc      *usecase.WarmUsecase
	timeout time.Duration
}

// NewWarmJob creates a WarmJob. A non-positive timeout means no deadline.
func NewWarmJob(uc *usecase.WarmUsecase, timeout time.Duration) *WarmJob {
	return &WarmJob{uc: uc, timeout: timeout}
}

// Name implements Job.
func (j *WarmJob) Name() string { return "cache_warm" }

// Run implements Job.
func (j *WarmJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	_, err := j.uc.WarmAll(ctx)
	return err
}
