package cms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the part of Service the warmer drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Warmer refreshes the content caches on a cron schedule so visitors rarely
// pay for an upstream round trip.
type Warmer struct {
	cron    *cron.Cron
	target  Refresher
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewWarmer validates schedule (standard five-field cron or @every/@hourly
// descriptors) and registers the refresh job. It does not start the cron.
func NewWarmer(target Refresher, schedule string, logger *zap.Logger, timeout time.Duration) (*Warmer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	w := &Warmer{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		target:  target,
		logger:  logger.Named("cms.warmer"),
		timeout: timeout,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("cms: invalid warm schedule %q: %w", schedule, err)
	}
	return w, nil
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	start := time.Now()
	if err := w.target.Refresh(ctx); err != nil {
		w.logger.Warn("cache warm incomplete", zap.Duration("latency", time.Since(start)), zap.Error(err))
		return
	}
	w.logger.Info("cache warmed", zap.Duration("latency", time.Since(start)))
}

// Start runs one refresh in the background and starts the schedule.
func (w *Warmer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.run()
	w.cron.Start()
}

// Stop halts the schedule and waits for a running refresh or ctx.
func (w *Warmer) Stop(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
		w.logger.Warn("cache warmer stop timed out")
	}
}
