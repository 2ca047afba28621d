package sweep

import (
	"context"
	"time"

	"github.com/lendwise/circulation-go/circulation"
)

const (
	defaultSweepInterval = time.Hour

	logMsgSweepFailed    = "sweep run failed"
	logMsgRunnerStopped  = "sweep runner stopped"
	logAttrError         = "error"
	logAttrSweepInterval = "sweep_interval"
)

// Runner drives the sweep on a fixed interval, independent of request
// traffic. It runs one sweep immediately on start and then on every tick
// until the context is cancelled.
type Runner struct {
	handler  CommandHandler
	clock    circulation.Clock
	interval time.Duration
	logger   circulation.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterval overrides the default hourly sweep interval.
func WithInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) {
		r.interval = interval
	}
}

// WithRunnerLogger sets the logger for run failures and lifecycle messages.
func WithRunnerLogger(logger circulation.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner around the given sweep handler.
func NewRunner(handler CommandHandler, clock circulation.Clock, opts ...RunnerOption) *Runner {
	runner := &Runner{
		handler:  handler,
		clock:    clock,
		interval: defaultSweepInterval,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run blocks until the context is cancelled, sweeping once per interval.
// A failed run is logged and does not stop the runner; the next tick starts
// from current state because the sweep is idempotent.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info(logMsgRunnerStopped, logAttrSweepInterval, r.interval.String())
			}

			return

		case <-ticker.C:
			r.sweepOnce(ctx)
		}
	}
}

func (r *Runner) sweepOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if _, err := r.handler.Handle(ctx, BuildCommand(r.clock.Now())); err != nil {
		if r.logger != nil {
			r.logger.Error(logMsgSweepFailed, logAttrError, err.Error())
		}
	}
}
