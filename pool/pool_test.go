package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	_, err := New(0, nil)
	require.ErrorIs(t, err, ErrInvalidSize)

	p, err := New(3, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, p.Size())
	require.NoError(t, p.Shutdown())
}

func TestShutdownRunsEverySubmittedJob(t *testing.T) {
	p, err := New(4, nil)
	require.NoError(t, err)

	var done int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&done, 1)
		}))
	}

	require.NoError(t, p.Shutdown())
	require.EqualValues(t, 100, atomic.LoadInt64(&done))
	require.Zero(t, p.Running())
}

func TestShutdownJoinsWorkers(t *testing.T) {
	p, err := New(3, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Submit(func() { time.Sleep(5 * time.Millisecond) }))
	}
	require.Positive(t, p.Running())

	require.NoError(t, p.Shutdown())
	require.Zero(t, p.Running())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p, err := New(1, nil)
	require.NoError(t, err)
	require.NoError(t, p.Shutdown())

	require.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	require.ErrorIs(t, p.Shutdown(), ErrPoolClosed)
}

func TestSubmitNil(t *testing.T) {
	p, err := New(1, nil)
	require.NoError(t, err)
	defer p.Shutdown()

	require.ErrorIs(t, p.Submit(nil), ErrNilJob)
}

func TestWorkersBound(t *testing.T) {
	const size = 2
	p, err := New(size, nil)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		}))
	}
	require.NoError(t, p.Shutdown())
	require.LessOrEqual(t, peak, size)
}

func TestPanickingJobDoesNotKillThePool(t *testing.T) {
	p, err := New(1, nil)
	require.NoError(t, err)

	require.NoError(t, p.Submit(func() { panic("boom") }))

	ran := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(ran) }))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job after panic never ran")
	}
	require.NoError(t, p.Shutdown())
}

func TestConcurrentShutdown(t *testing.T) {
	p, err := New(2, nil)
	require.NoError(t, err)
	require.NoError(t, p.Submit(func() { time.Sleep(5 * time.Millisecond) }))

	var (
		wg     sync.WaitGroup
		closed int64
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Shutdown() == nil {
				atomic.AddInt64(&closed, 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, closed)
}
