package worker_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/EgehanKilicarslan/tasktracker/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPool(t *testing.T) {
	pool := worker.NewPool(testLogger())

	assert.NotNil(t, pool)
	assert.NotNil(t, pool.Context())
}

func TestPoolSubmit(t *testing.T) {
	pool := worker.NewPool(testLogger())

	var counter int32
	for i := 0; i < 10; i++ {
		pool.Submit(func(ctx context.Context) {
			atomic.AddInt32(&counter, 1)
		})
	}

	pool.Shutdown(5 * time.Second)

	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
}

func TestPoolEvery_RunsImmediatelyAndRepeats(t *testing.T) {
	pool := worker.NewPool(testLogger())

	var runs int32
	pool.Every("counter", 10*time.Millisecond, time.Second, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	pool.Shutdown(5 * time.Second)

	stopped := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&runs), "no runs after shutdown")
}

func TestPoolEvery_RunContextHasDeadline(t *testing.T) {
	pool := worker.NewPool(testLogger())

	gotDeadline := make(chan bool, 1)
	pool.Every("deadline", time.Hour, 50*time.Millisecond, func(ctx context.Context) {
		_, ok := ctx.Deadline()
		select {
		case gotDeadline <- ok:
		default:
		}
	})

	select {
	case ok := <-gotDeadline:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("periodic task never ran")
	}

	pool.Shutdown(5 * time.Second)
}

func TestPoolShutdown_CancelsContext(t *testing.T) {
	pool := worker.NewPool(testLogger())

	cancelled := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})

	pool.Shutdown(5 * time.Second)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("worker context was not cancelled")
	}
	assert.Error(t, pool.Context().Err())
}

func TestPoolShutdown_Timeout(t *testing.T) {
	pool := worker.NewPool(testLogger())

	release := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		<-release
	})

	start := time.Now()
	pool.Shutdown(50 * time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
}
