package concurrency

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-async/api"
)

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestExecutor_RunsAllSubmitted(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 4})
	const n = 10000
	var ran atomic.Int64
	for i := 0; i < n; i++ {
		require.NoError(t, e.Submit(func() { ran.Add(1) }))
	}
	e.Close()

	assert.Equal(t, int64(n), ran.Load())
	st := e.Stats()
	assert.Equal(t, uint64(n), st.Submitted)
	assert.Equal(t, uint64(n), st.Completed)
	assert.Zero(t, st.Pending)
	assert.Equal(t, 0, st.Queue.Len)
}

func TestExecutor_SingleWorkerKeepsSubmissionOrder(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 1, FetchBatch: 4})
	var got []int
	for i := 0; i < 500; i++ {
		require.NoError(t, e.Submit(func() { got = append(got, i) }))
	}
	e.Close()

	require.Len(t, got, 500)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestExecutor_SubmitErrors(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 1})

	err := e.SubmitHandle(TaskHandle{})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.ErrorIs(t, e.Submit(nil), api.ErrInvalidArgument)

	e.Close()
	err = e.Submit(func() {})
	assert.ErrorIs(t, err, ErrExecutorClosed)
	assert.ErrorIs(t, err, api.ErrClosed)
	assert.ErrorIs(t, e.SubmitBatch(sliceBatch[TaskHandle]{NewTaskHandle(func() {})}), ErrExecutorClosed)

	e.Close() // idempotent
}

func TestExecutor_SubmitBatch(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 3})
	var ran atomic.Int64
	batch := make(sliceBatch[TaskHandle], 0, 100)
	for i := 0; i < 100; i++ {
		batch = append(batch, NewTaskHandle(func() { ran.Add(1) }))
	}
	require.NoError(t, e.SubmitBatch(batch))
	require.NoError(t, e.SubmitBatch(sliceBatch[TaskHandle]{}))

	bad := sliceBatch[TaskHandle]{NewTaskHandle(func() {}), {}}
	assert.ErrorIs(t, e.SubmitBatch(bad), api.ErrInvalidArgument)

	e.Close()
	assert.Equal(t, int64(100), ran.Load())
}

func TestExecutor_QueueGrowthErrorPropagates(t *testing.T) {
	block := make(chan struct{})
	e := NewExecutor(ExecutorConfig{
		Workers:    1,
		FetchBatch: 1,
		Queue:      []FIFOOption{WithMaxCapacity(32)},
	})
	started := make(chan struct{})
	require.NoError(t, e.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	var err error
	accepted := 0
	for i := 0; i < 64 && err == nil; i++ {
		if err = e.Submit(func() {}); err == nil {
			accepted++
		}
	}
	assert.ErrorIs(t, err, ErrQueueGrowth)
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	assert.Equal(t, 31, accepted)

	close(block)
	e.Close()
	assert.Equal(t, uint64(32), e.Stats().Completed)
}

func TestExecutor_PanicRecovered(t *testing.T) {
	sink := &syncBuffer{}
	logger := zerolog.New(sink)
	e := NewExecutor(ExecutorConfig{Workers: 2, Logger: &logger})

	var ran atomic.Bool
	require.NoError(t, e.Submit(func() { panic("boom") }))
	require.NoError(t, e.Submit(func() { ran.Store(true) }))
	e.Close()

	assert.True(t, ran.Load())
	st := e.Stats()
	assert.Equal(t, uint64(1), st.Panicked)
	assert.Equal(t, uint64(2), st.Completed)
	assert.Contains(t, sink.String(), "task panicked")
	assert.Contains(t, sink.String(), "boom")
}

func TestExecutor_Resize(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 2})
	defer e.Close()
	assert.Equal(t, 2, e.NumWorkers())

	e.Resize(6)
	assert.Equal(t, 6, e.NumWorkers())

	var ran atomic.Int64
	for i := 0; i < 2000; i++ {
		require.NoError(t, e.Submit(func() { ran.Add(1) }))
	}
	e.Resize(1)
	assert.Equal(t, 1, e.NumWorkers())
	e.Resize(0)
	assert.Equal(t, 1, e.NumWorkers(), "pool keeps at least one worker")

	require.Eventually(t, func() bool { return ran.Load() == 2000 }, 5*time.Second, time.Millisecond)
}

func TestExecutor_ConcurrentSubmitAndClose(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 4})
	var accepted, ran atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				err := e.Submit(func() { ran.Add(1) })
				if errors.Is(err, ErrExecutorClosed) {
					return
				}
				if err != nil {
					t.Errorf("submit: %v", err)
					return
				}
				accepted.Add(1)
			}
		}()
	}
	time.Sleep(time.Millisecond)
	e.Close()
	wg.Wait()

	assert.Equal(t, accepted.Load(), ran.Load(), "every accepted task must run")
}

func TestExecutor_PinWorkerHook(t *testing.T) {
	sink := &syncBuffer{}
	logger := zerolog.New(sink)
	var mu sync.Mutex
	pinned := map[int]bool{}
	e := NewExecutor(ExecutorConfig{
		Workers: 3,
		Logger:  &logger,
		PinWorker: func(id int) error {
			mu.Lock()
			defer mu.Unlock()
			pinned[id] = true
			if id == 1 {
				return errors.New("cpu busy")
			}
			return nil
		},
	})
	var ran atomic.Int64
	for i := 0; i < 30; i++ {
		require.NoError(t, e.Submit(func() { ran.Add(1) }))
	}
	e.Close()

	assert.Equal(t, int64(30), ran.Load())
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, pinned)
	assert.Contains(t, sink.String(), "worker pinning failed")
}

func TestExecutor_WorkStealing(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Workers: 4, FetchBatch: 16})
	var ran atomic.Int64
	for i := 0; i < 4000; i++ {
		require.NoError(t, e.Submit(func() {
			time.Sleep(time.Microsecond)
			ran.Add(1)
		}))
	}
	e.Close()
	assert.Equal(t, int64(4000), ran.Load())
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, time.Microsecond, nextBackoff(0, time.Millisecond))
	assert.Equal(t, 4*time.Microsecond, nextBackoff(2*time.Microsecond, time.Millisecond))
	assert.Equal(t, time.Millisecond, nextBackoff(800*time.Microsecond, time.Millisecond))
}

func TestExecutorConfig_Defaults(t *testing.T) {
	c := ExecutorConfig{LocalQueueSize: 2, FetchBatch: 10}.withDefaults()
	assert.Positive(t, c.Workers)
	assert.Equal(t, 3, c.FetchBatch, "a burst must fit the local queue")
	assert.Equal(t, defaultIdleBackoffMax, c.IdleBackoffMax)
	assert.NotNil(t, c.Logger)
}
