package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/config"
)

func TestNewSweeperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewSweeperService(SweeperServiceOptions{
			Jobs: &stubJobRepo{},
			Config: config.SweeperConfig{
				Interval:       time.Minute,
				AcceptDeadline: 90 * time.Minute,
				BatchSize:      100,
			},
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewSweeperService(SweeperServiceOptions{Jobs: nil})
		assert.Error(t, err)
	})
}

func TestSweeperServiceSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("drains full batches until a short batch", func(t *testing.T) {
		calls := 0
		jobs := &stubJobRepo{
			expireStalePendingFn: func(_ context.Context, maxAge time.Duration, batchSize int) ([]string, error) {
				calls++
				assert.Equal(t, 90*time.Minute, maxAge)
				assert.Equal(t, 2, batchSize)
				// Two full batches, then a short one.
				switch calls {
				case 1, 2:
					return []string{"a", "b"}, nil
				default:
					return []string{"c"}, nil
				}
			},
		}
		svc, err := NewSweeperService(SweeperServiceOptions{
			Jobs: jobs,
			Config: config.SweeperConfig{
				Interval:       time.Minute,
				AcceptDeadline: 90 * time.Minute,
				BatchSize:      2,
			},
		})
		require.NoError(t, err)

		require.NoError(t, svc.sweep(ctx))
		assert.Equal(t, 3, calls)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		jobs := &stubJobRepo{
			expireStalePendingFn: func(context.Context, time.Duration, int) ([]string, error) {
				return nil, errors.New("deadlock detected")
			},
		}
		svc, err := NewSweeperService(SweeperServiceOptions{
			Jobs:   jobs,
			Config: config.SweeperConfig{Interval: time.Minute, AcceptDeadline: time.Hour, BatchSize: 10},
		})
		require.NoError(t, err)

		assert.Error(t, svc.sweep(ctx))
	})
}

func TestSweeperServiceRun(t *testing.T) {
	t.Run("stops cleanly on cancel", func(t *testing.T) {
		var mu sync.Mutex
		swept := 0
		jobs := &stubJobRepo{
			expireStalePendingFn: func(context.Context, time.Duration, int) ([]string, error) {
				mu.Lock()
				swept++
				mu.Unlock()
				return nil, nil
			},
		}
		svc, err := NewSweeperService(SweeperServiceOptions{
			Jobs: jobs,
			Config: config.SweeperConfig{
				Interval:       10 * time.Millisecond,
				AcceptDeadline: time.Hour,
				BatchSize:      10,
			},
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()

		time.Sleep(60 * time.Millisecond)
		cancel()

		select {
		case runErr := <-done:
			assert.NoError(t, runErr)
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop after cancel")
		}

		mu.Lock()
		defer mu.Unlock()
		assert.GreaterOrEqual(t, swept, 1)
	})
}
