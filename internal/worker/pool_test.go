package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_RunsSubmittedWork(t *testing.T) {
	t.Parallel()

	pool := NewPool(2, testLogger())
	defer pool.Shutdown()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := pool.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int32(5), ran.Load())
}

func TestPool_SubmitBlocksWhenWorkersBusy(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, testLogger())
	defer pool.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})
	err := pool.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	// The single worker is occupied, so a bounded-context Submit must
	// time out rather than queue the work.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = pool.Submit(ctx, func(ctx context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, testLogger())
	pool.Shutdown()
	pool.Wait()

	err := pool.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_ShutdownCancelsUnitContext(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, testLogger())

	observed := make(chan struct{})
	err := pool.Submit(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		close(observed)
	})
	require.NoError(t, err)

	pool.Shutdown()

	select {
	case <-observed:
	case <-time.After(2 * time.Second):
		t.Fatal("unit did not observe pool shutdown")
	}
	pool.Wait()
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, testLogger())
	pool.Shutdown()
	pool.Shutdown()
	pool.Wait()
}

func TestPool_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, testLogger())
	defer pool.Shutdown()

	err := pool.Submit(context.Background(), func(ctx context.Context) {
		panic("job blew up")
	})
	require.NoError(t, err)

	// The worker must survive the panic and keep taking work.
	done := make(chan struct{})
	err = pool.Submit(context.Background(), func(ctx context.Context) {
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking unit")
	}
}

func TestNewPool_InvalidSizeFallsBack(t *testing.T) {
	t.Parallel()

	pool := NewPool(0, testLogger())
	defer pool.Shutdown()

	done := make(chan struct{})
	err := pool.Submit(context.Background(), func(ctx context.Context) {
		close(done)
	})
	require.NoError(t, err)
	<-done
}
