// Package sweeper runs the notification sweep once or on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/requestctx"
	"github.com/noah-isme/gema-study-api/internal/service"
)

// Sweeper is the subset of the notification service a run needs.
type Sweeper interface {
	Sweep(ctx context.Context, actor service.Actor, now time.Time) (int, error)
}

// Runner executes sweeps as the system actor. Runs never overlap.
type Runner struct {
	sweeper Sweeper
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRunner builds a runner. The timeout defaults to four minutes; once it
// expires the sweep stops taking new items, and anything already dispatched
// is still marked sent.
func NewRunner(sweeper Sweeper, timeout time.Duration, logger zerolog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	return &Runner{
		sweeper: sweeper,
		logger:  logger.With().Str("component", "sweeper").Logger(),
		timeout: timeout,
		now:     time.Now,
	}
}

// RunOnce performs a single sweep tagged with a fresh run id.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	ctx, runID := requestctx.NewRun(ctx)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	processed, err := r.sweeper.Sweep(ctx, service.SystemActor(), r.now())
	if err != nil {
		r.logger.Error().Err(err).Str("run_id", runID).Msg("sweep failed")
		return processed, err
	}

	r.logger.Info().Str("run_id", runID).Int("processed", processed).Msgf("processed %d due notifications", processed)
	return processed, nil
}

// Schedule registers RunOnce under spec and returns the stopped scheduler.
// The caller starts it and stops it on shutdown.
func (r *Runner) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	logger := cronLogger{logger: r.logger}
	scheduler := cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	if _, err := scheduler.AddFunc(spec, func() {
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	return scheduler, nil
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
