package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const janitorTimeout = 30 * time.Second

// ChallengeSweeper deletes expired challenge rows
type ChallengeSweeper interface {
	DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChallengeJanitor periodically deletes expired, unconsumed challenges.
// Consumed challenges stay: the unique nonce row is what makes a replayed
// exchange detectable.
type ChallengeJanitor struct {
	store    ChallengeSweeper
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewChallengeJanitor creates a janitor sweeping at the given interval
func NewChallengeJanitor(store ChallengeSweeper, interval time.Duration, logger *zap.Logger) *ChallengeJanitor {
	return &ChallengeJanitor{
		store:    store,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop
func (j *ChallengeJanitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.sweep()
			case <-j.stopCh:
				return
			}
		}
	}()
}

func (j *ChallengeJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), janitorTimeout)
	defer cancel()

	deleted, err := j.store.DeleteExpiredChallenges(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Warn("Challenge sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("Deleted expired challenges", zap.Int64("count", deleted))
	}
}

// Stop stops the sweep loop. Safe to call more than once.
func (j *ChallengeJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}
