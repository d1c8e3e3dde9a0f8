// Package tasks runs work detached from the HTTP request that triggered it.
package tasks

import (
	"context"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/justmike1/alpaca/metrics"
)

// Runner starts background runs and can wait for all of them to finish.
// A run's error or panic is logged and counted, never propagated.
type Runner struct {
	group errgroup.Group
}

func NewRunner() *Runner {
	return &Runner{}
}

// Go runs fn on its own goroutine. ctx loses the caller's cancellation so a
// run outlives the request it came from; values such as loggers are kept.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	r.group.Go(func() error {
		r.run(ctx, name, fn)
		return nil
	})
}

func (r *Runner) run(ctx context.Context, name string, fn func(ctx context.Context) error) {
	logger := log.WithField("task", name)
	defer func() {
		if rec := recover(); rec != nil {
			metrics.Runs.WithLabelValues(metrics.OutcomePanic).Inc()
			logger.WithField("stack", string(debug.Stack())).Errorf("background run panicked: %v", rec)
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.Runs.WithLabelValues(metrics.OutcomeError).Inc()
		logger.WithError(err).Error("background run failed")
		return
	}
	metrics.Runs.WithLabelValues(metrics.OutcomeOK).Inc()
}

// Wait blocks until every run started so far has returned.
func (r *Runner) Wait() {
	_ = r.group.Wait()
}
