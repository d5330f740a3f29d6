package filevault

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgeCountingService struct {
	Service
	calls atomic.Int32
}

func (s *purgeCountingService) PurgeDeletedOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestSweeperDefaults(t *testing.T) {
	s := NewSweeper(&purgeCountingService{}, 0, 0, nil)
	assert.Equal(t, DefaultRetention, s.retention)
	assert.Equal(t, time.Hour, s.interval)
	assert.NotNil(t, s.logger)
}

func TestSweeperRunsOnTick(t *testing.T) {
	svc := &purgeCountingService{}
	s := NewSweeper(svc, time.Hour, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, svc.calls.Load())
}

func TestSweeperStopsOnCancel(t *testing.T) {
	s := NewSweeper(&purgeCountingService{}, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
