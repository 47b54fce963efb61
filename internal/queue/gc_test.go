package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type purgerFunc func(ctx context.Context, retention time.Duration) (int, error)

func (f purgerFunc) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	return f(ctx, retention)
}

var _ DLQPurger = purgerFunc(nil)

func TestGarbageCollector_Sweep(t *testing.T) {
	t.Parallel()

	t.Run("nil purger", func(t *testing.T) {
		t.Parallel()
		n, err := NewGarbageCollector(nil, time.Minute, time.Hour, nil).Sweep(context.Background())
		if err != nil || n != 0 {
			t.Errorf("Sweep() = %d, %v; want 0, nil", n, err)
		}
	})

	t.Run("passes retention and deadline", func(t *testing.T) {
		t.Parallel()
		purger := purgerFunc(func(ctx context.Context, retention time.Duration) (int, error) {
			if retention != 24*time.Hour {
				return 0, errors.New("unexpected retention")
			}
			if _, ok := ctx.Deadline(); !ok {
				return 0, errors.New("sweep should carry a deadline")
			}
			return 3, nil
		})
		n, err := NewGarbageCollector(purger, time.Minute, 24*time.Hour, zap.NewNop()).Sweep(context.Background())
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if n != 3 {
			t.Errorf("Sweep() = %d, want 3", n)
		}
	})

	t.Run("wraps purge errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("channel closed")
		purger := purgerFunc(func(context.Context, time.Duration) (int, error) { return 0, boom })
		_, err := NewGarbageCollector(purger, time.Minute, time.Hour, nil).Sweep(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("Sweep() error = %v, want wrapped %v", err, boom)
		}
	})
}

func TestGarbageCollector_StartSweepsImmediately(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	purger := purgerFunc(func(context.Context, time.Duration) (int, error) {
		calls.Add(1)
		cancel()
		return 2, nil
	})

	err := NewGarbageCollector(purger, 24*time.Hour, time.Hour, zap.New(core)).Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one sweep before the first tick, got %d", calls.Load())
	}
	if logs.FilterMessage("dlq_gc_purged").Len() != 1 {
		t.Error("expected dlq_gc_purged to be logged")
	}
}

func TestGarbageCollector_StartWithoutPurgerWaits(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewGarbageCollector(nil, time.Minute, time.Hour, nil).Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}
