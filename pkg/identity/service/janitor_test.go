package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type MockSweeper struct {
	swept chan struct{}
}

func (m *MockSweeper) DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error) {
	select {
	case m.swept <- struct{}{}:
	default:
	}
	return 1, nil
}

func TestChallengeJanitorSweeps(t *testing.T) {
	sweeper := &MockSweeper{swept: make(chan struct{}, 1)}
	janitor := NewChallengeJanitor(sweeper, 10*time.Millisecond, zap.NewNop())

	janitor.Start()
	defer janitor.Stop()

	select {
	case <-sweeper.swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a sweep within the interval")
	}
}

func TestChallengeJanitorStopIdempotent(t *testing.T) {
	sweeper := &MockSweeper{swept: make(chan struct{}, 1)}
	janitor := NewChallengeJanitor(sweeper, time.Hour, zap.NewNop())

	janitor.Start()
	janitor.Stop()
	janitor.Stop()
}
