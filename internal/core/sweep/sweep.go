// Package sweep runs periodic eviction passes over the in-memory tables.
// Expired cache entries and stale rate-limit windows are only reclaimed
// here; lookups treat them as absent but never delete.
package sweep

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagegate/pagegate/internal/metrics"
	"github.com/pagegate/pagegate/internal/observability"
)

// Func performs one eviction pass and reports how many entries it removed.
type Func func() int

// Runner invokes a sweep function on a fixed interval until stopped.
type Runner struct {
	table    string
	interval time.Duration
	fn       Func

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRunner creates a runner for the named table. The name appears in logs
// and metric labels.
func NewRunner(table string, interval time.Duration, fn Func) *Runner {
	return &Runner{
		table:    table,
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine. The loop exits
// when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.runOnce()
			}
		}
	}()
}

// Stop terminates the loop and waits for the in-flight pass to finish.
// Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Runner) runOnce() {
	removed := r.fn()
	metrics.RecordSweep(r.table, removed)

	if removed > 0 && observability.ServerLogger != nil {
		observability.ServerLogger.Debug("Sweep pass completed",
			zap.String("table", r.table),
			zap.Int("removed", removed))
	}
}
