package eventsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner schedules periodic sync passes for an engine
type Runner struct {
	engine   *Engine
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner creates a runner that drives the engine at the given interval
func NewRunner(engine *Engine, interval time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		engine:   engine,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background sync loop. An initial pass runs
// immediately so a fresh deployment does not wait a full interval.
func (r *Runner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("Started event sync loop", zap.Duration("interval", r.interval))

		r.runPass()

		for {
			select {
			case <-ticker.C:
				r.runPass()
			case <-r.stopCh:
				r.logger.Info("Stopping event sync loop")
				return
			}
		}
	}()
}

func (r *Runner) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := r.engine.RunOnce(ctx); err != nil {
		r.logger.Error("Sync pass failed", zap.Error(err))
	}
}

// Stop stops the loop and waits for an in-flight pass to finish.
// Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
