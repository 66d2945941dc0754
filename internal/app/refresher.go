package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultRefreshInterval = 60 * time.Second

// Refreshable is the part of the project cache the refresher drives.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// Refresher runs Refresh on a fixed cadence until stopped. A refresh that has
// started always runs to completion; only the wait between refreshes is
// interruptible.
type Refresher struct {
	target   Refreshable
	interval time.Duration
	logger   *slog.Logger

	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once

	startOnce sync.Once
	done      chan struct{}
}

// NewRefresher returns a Refresher for target. A non-positive interval uses
// 60 seconds.
func NewRefresher(target Refreshable, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		target:   target,
		interval: interval,
		logger:   logger.With("component", "refresher"),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Calls after the first are ignored.
func (r *Refresher) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.loop(ctx)
	})
}

// Stop asks the loop to exit at its next check. It does not wait.
func (r *Refresher) Stop() {
	r.stopped.Store(true)
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Done is closed once the loop has exited.
func (r *Refresher) Done() <-chan struct{} {
	return r.done
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)
	r.logger.Info("refresher started", "interval", r.interval)
	defer r.logger.Info("refresher stopped")

	for {
		if r.stopped.Load() || ctx.Err() != nil {
			return
		}

		start := time.Now()
		if err := r.target.Refresh(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("refresh failed", "error", err, "elapsed", time.Since(start))
		} else {
			r.logger.Debug("refresh complete", "elapsed", time.Since(start))
		}

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
