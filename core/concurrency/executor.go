// File: core/concurrency/executor.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs externally submitted tasks on a pool of worker goroutines.
// Submissions land in one FIFOQueue. Workers take small bursts from it, run
// the first task and park the rest in their bounded local queue, where idle
// workers can steal them. An empty pop is the normal idle signal, never an error.

package concurrency

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-async/api"
)

const (
	defaultLocalQueueSize = 256
	defaultFetchBatch     = 8
	defaultIdleBackoffMax = time.Millisecond
)

// ExecutorConfig holds executor parameters. Zero fields take defaults.
type ExecutorConfig struct {
	Workers        int           // worker goroutines, defaults to runtime.NumCPU()
	LocalQueueSize int           // per-worker run queue capacity
	FetchBatch     int           // max items taken from the submission queue per visit
	IdleBackoffMax time.Duration // upper bound of the idle wait between polls

	// PinWorker, when set, runs at the start of each worker goroutine.
	// A returned error is logged and the worker continues unpinned.
	PinWorker func(workerID int) error

	// Queue options for the submission queue.
	Queue []FIFOOption

	Logger *zerolog.Logger
}

func (c ExecutorConfig) withDefaults() ExecutorConfig {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LocalQueueSize <= 0 {
		c.LocalQueueSize = defaultLocalQueueSize
	}
	if c.FetchBatch <= 0 {
		c.FetchBatch = defaultFetchBatch
	}
	// the spilled part of a burst must always fit an empty local queue
	if c.FetchBatch > c.LocalQueueSize+1 {
		c.FetchBatch = c.LocalQueueSize + 1
	}
	if c.IdleBackoffMax <= 0 {
		c.IdleBackoffMax = defaultIdleBackoffMax
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}

// ExecutorStats is a snapshot of executor counters.
type ExecutorStats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Stolen    uint64
	Panicked  uint64
	Pending   int64
	Queue     FIFOStats
}

// Executor manages a pool of worker goroutines.
type Executor struct {
	cfg      ExecutorConfig
	log      zerolog.Logger
	external *FIFOQueue[TaskHandle]

	mu      sync.Mutex                // serializes Resize and Close
	workers atomic.Pointer[[]*worker] // copy-on-write snapshot for stealing
	nextID  int

	wake   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	pending   atomic.Int64 // accepted but not yet finished
	submitted atomic.Uint64
	completed atomic.Uint64
	stolen    atomic.Uint64
	panicked  atomic.Uint64
}

// Ensure compile-time interface compliance.
var _ api.Executor = (*Executor)(nil)

// NewExecutor creates an Executor and starts its workers.
func NewExecutor(cfg ExecutorConfig) *Executor {
	cfg = cfg.withDefaults()
	e := &Executor{
		cfg:      cfg,
		log:      cfg.Logger.With().Str("component", "executor").Logger(),
		external: NewFIFOQueue[TaskHandle](cfg.Queue...),
		wake:     make(chan struct{}, 1),
	}
	empty := make([]*worker, 0, cfg.Workers)
	e.workers.Store(&empty)

	e.mu.Lock()
	e.addWorkers(cfg.Workers)
	e.mu.Unlock()

	e.log.Debug().Int("workers", cfg.Workers).Int("fetch_batch", cfg.FetchBatch).Msg("executor started")
	return e
}

// Submit wraps fn in a TaskHandle and queues it for execution.
func (e *Executor) Submit(fn func()) error {
	return e.SubmitHandle(NewTaskHandle(fn))
}

// SubmitHandle queues t. Empty handles are rejected with api.ErrInvalidArgument.
func (e *Executor) SubmitHandle(t TaskHandle) error {
	if !t.Valid() {
		return fmt.Errorf("submit empty task: %w", api.ErrInvalidArgument)
	}

	// pending is raised before the closed check so Close cannot miss this task
	e.pending.Add(1)
	if e.closed.Load() {
		e.pending.Add(-1)
		return ErrExecutorClosed
	}
	if err := e.external.Push(t); err != nil {
		e.pending.Add(-1)
		return fmt.Errorf("submit task %d: %w", t.ID(), err)
	}
	e.submitted.Add(1)
	e.notify()
	return nil
}

// SubmitBatch queues every handle of b in order with one queue lock hold.
func (e *Executor) SubmitBatch(b api.Batch[TaskHandle]) error {
	n := b.Len()
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		if !b.Get(i).Valid() {
			return fmt.Errorf("submit batch item %d: %w", i, api.ErrInvalidArgument)
		}
	}

	e.pending.Add(int64(n))
	if e.closed.Load() {
		e.pending.Add(-int64(n))
		return ErrExecutorClosed
	}
	if err := e.external.PushBatch(b); err != nil {
		e.pending.Add(-int64(n))
		return fmt.Errorf("submit batch of %d: %w", n, err)
	}
	e.submitted.Add(uint64(n))
	e.notify()
	return nil
}

// Resize grows or shrinks the worker pool. Work parked on removed workers
// goes back to the submission queue.
func (e *Executor) Resize(newCount int) {
	if newCount <= 0 {
		newCount = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return
	}

	current := *e.workers.Load()
	switch {
	case newCount > len(current):
		e.addWorkers(newCount - len(current))
	case newCount < len(current):
		kept := append([]*worker(nil), current[:newCount]...)
		removed := current[newCount:]
		e.workers.Store(&kept)
		for _, w := range removed {
			close(w.stopCh)
		}
		for _, w := range removed {
			<-w.stoppedCh
		}
	default:
		return
	}
	e.log.Info().Int("from", len(current)).Int("to", newCount).Msg("executor resized")
}

// Close stops accepting tasks, runs everything already queued and waits for
// the workers to exit. Later calls return immediately.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return
	}
	e.closed.Store(true)
	e.mu.Unlock()

	e.notify()
	e.wg.Wait()
	e.log.Debug().
		Uint64("completed", e.completed.Load()).
		Uint64("panicked", e.panicked.Load()).
		Msg("executor closed")
}

// NumWorkers returns active worker count.
func (e *Executor) NumWorkers() int {
	return len(*e.workers.Load())
}

// Stats returns a snapshot of executor and queue counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		Workers:   e.NumWorkers(),
		Submitted: e.submitted.Load(),
		Completed: e.completed.Load(),
		Stolen:    e.stolen.Load(),
		Panicked:  e.panicked.Load(),
		Pending:   e.pending.Load(),
		Queue:     e.external.Stats(),
	}
}

// addWorkers starts n workers and publishes a new snapshot. Caller holds e.mu.
func (e *Executor) addWorkers(n int) {
	current := *e.workers.Load()
	next := make([]*worker, len(current), len(current)+n)
	copy(next, current)
	for i := 0; i < n; i++ {
		w := &worker{
			id:        e.nextID,
			exec:      e,
			local:     NewLockFreeQueue[TaskHandle](e.cfg.LocalQueueSize),
			stopCh:    make(chan struct{}),
			stoppedCh: make(chan struct{}),
		}
		e.nextID++
		next = append(next, w)
		e.wg.Add(1)
		go w.run()
	}
	e.workers.Store(&next)
}

// notify wakes one idle worker without blocking.
func (e *Executor) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// drained reports whether the executor is closed and has no work left.
func (e *Executor) drained() bool {
	return e.closed.Load() && e.pending.Load() == 0
}

// worker runs tasks.
type worker struct {
	id        int
	exec      *Executor
	local     *LockFreeQueue[TaskHandle]
	burst     []TaskHandle
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func (w *worker) run() {
	defer func() {
		close(w.stoppedCh)
		w.exec.wg.Done()
	}()

	if pin := w.exec.cfg.PinWorker; pin != nil {
		if err := pin(w.id); err != nil {
			w.exec.log.Warn().Err(err).Int("worker", w.id).Msg("worker pinning failed")
		}
	}

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	var backoff time.Duration

	for {
		select {
		case <-w.stopCh:
			w.requeueLocal()
			return
		default:
		}

		if t, ok := w.next(); ok {
			w.execute(t)
			backoff = 0
			continue
		}
		if w.exec.drained() {
			return
		}

		backoff = nextBackoff(backoff, w.exec.cfg.IdleBackoffMax)
		timer.Reset(backoff)
		select {
		case <-w.exec.wake:
			backoff = 0
		case <-timer.C:
			continue
		case <-w.stopCh:
		}
		stopTimer(timer)
	}
}

// next finds a runnable task: own queue, then the submission queue, then peers.
func (w *worker) next() (TaskHandle, bool) {
	if t, ok := w.local.Dequeue(); ok {
		return t, true
	}
	if t, ok := w.fetch(); ok {
		return t, true
	}
	return w.steal()
}

// fetch takes a burst from the submission queue, keeps the head for
// immediate execution and parks the remainder locally.
func (w *worker) fetch() (TaskHandle, bool) {
	w.burst = w.exec.external.PopBatch(w.burst[:0], w.exec.cfg.FetchBatch)
	if len(w.burst) == 0 {
		return TaskHandle{}, false
	}

	first := w.burst[0].Take()
	for i := 1; i < len(w.burst); i++ {
		t := w.burst[i].Take()
		if !w.local.Enqueue(t) {
			w.pushBack(t)
		}
	}
	if len(w.burst) > 1 {
		w.exec.notify()
	}
	return first, true
}

// steal takes one task from a random peer's local queue.
func (w *worker) steal() (TaskHandle, bool) {
	peers := *w.exec.workers.Load()
	n := len(peers)
	if n < 2 {
		return TaskHandle{}, false
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		p := peers[(start+i)%n]
		if p == w {
			continue
		}
		if t, ok := p.local.Dequeue(); ok {
			w.exec.stolen.Add(1)
			return t, true
		}
	}
	return TaskHandle{}, false
}

// requeueLocal hands parked work back to the submission queue on removal.
func (w *worker) requeueLocal() {
	for {
		t, ok := w.local.Dequeue()
		if !ok {
			return
		}
		w.pushBack(t)
	}
}

// pushBack returns t to the submission queue, running it in place if the
// queue cannot take it.
func (w *worker) pushBack(t TaskHandle) {
	if err := w.exec.external.Push(t); err != nil {
		w.exec.log.Error().Err(err).Int("worker", w.id).Uint64("task", t.ID()).Msg("requeue failed, running inline")
		w.execute(t)
		return
	}
	w.exec.notify()
}

func (w *worker) execute(t TaskHandle) {
	id := t.ID()
	defer func() {
		if r := recover(); r != nil {
			w.exec.panicked.Add(1)
			w.exec.log.Error().
				Int("worker", w.id).
				Uint64("task", id).
				Interface("panic", r).
				Msg("task panicked")
		}
		w.exec.completed.Add(1)
		w.exec.pending.Add(-1)
	}()
	t.Run()
}

// nextBackoff doubles the idle wait from 1µs up to limit.
func nextBackoff(cur, limit time.Duration) time.Duration {
	if cur <= 0 {
		cur = time.Microsecond
	} else {
		cur *= 2
	}
	if cur > limit {
		cur = limit
	}
	return cur
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
