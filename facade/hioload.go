// File: facade/hioload.go
// Unified facade layer for hioload-async.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime aggregates the executor, its submission queue, the control plane
// and CPU affinity behind one type configured from an immutable Config.

package facade

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-async/adapters"
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/core/concurrency"
	"github.com/momentics/hioload-async/internal/affinity"
	"github.com/momentics/hioload-async/pool"
)

// ErrNotStarted is returned by submissions made before Start.
var ErrNotStarted = errors.New("runtime not started")

// Runtime is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Runtime struct {
	config  Config
	base    zerolog.Logger
	log     zerolog.Logger
	control *adapters.ControlAdapter
	batches *pool.BatchPool[concurrency.TaskHandle]

	cancelReload func()

	mu       sync.RWMutex // protects the fields below
	executor *adapters.ExecutorAdapter
	started  bool
	stopped  bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Runtime)(nil)

// New validates cfg and prepares a runtime. Workers start with Start.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("facade config: %w", err)
	}
	base, err := newLogger(cfg.LogLevel, cfg.LogOutput)
	if err != nil {
		return nil, fmt.Errorf("facade config: %w", err)
	}

	r := &Runtime{
		config:  *cfg,
		base:    base,
		log:     base.With().Str("component", "facade").Logger(),
		control: adapters.NewControlAdapter(),
		batches: pool.NewBatchPool[concurrency.TaskHandle](),
	}

	// Expose configuration values via Control for observability and hot-reload.
	if err := r.control.SetConfig(cfg.asMap()); err != nil {
		return nil, err
	}
	r.cancelReload = r.control.OnReload(r.applyReload)
	return r, nil
}

// Start launches the worker pool. Subsequent calls have no effect; starting
// a runtime that was shut down fails.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return fmt.Errorf("start: %w", api.ErrClosed)
	}
	if r.started {
		return nil
	}

	r.executor = adapters.NewExecutorAdapter(r.executorConfig())
	if r.config.EnableDebug {
		r.registerProbes()
	}
	if r.config.EnableMetrics {
		r.control.SetMetric("metrics.enabled", true)
	}
	r.started = true

	r.log.Info().
		Int("workers", r.executor.NumWorkers()).
		Bool("spin_lock", r.config.SpinLock).
		Bool("cpu_affinity", r.config.CPUAffinity).
		Msg("runtime started")
	return nil
}

func (r *Runtime) executorConfig() concurrency.ExecutorConfig {
	cfg := r.config
	logger := r.base
	locker := sync.Locker(&sync.Mutex{})
	if cfg.SpinLock {
		locker = &concurrency.Spinlock{}
	}
	ec := concurrency.ExecutorConfig{
		Workers:        cfg.NumWorkers,
		LocalQueueSize: cfg.LocalQueueSize,
		FetchBatch:     cfg.FetchBatch,
		IdleBackoffMax: cfg.IdleBackoffMax,
		Queue: []concurrency.FIFOOption{
			concurrency.WithLocker(locker),
			concurrency.WithMaxCapacity(cfg.MaxQueueCapacity),
			concurrency.WithMemoryCheck(cfg.MemoryCheck),
		},
		Logger: &logger,
	}
	if cfg.CPUAffinity {
		ec.PinWorker = pinHook(affinity.PinCurrentThread, affinity.UnpinCurrentThread, affinity.CPUForWorker)
	}
	return ec
}

// pinHook pins worker i to cpuFor(i). A worker that cannot be pinned is
// released from its OS thread and keeps running unpinned.
func pinHook(pin func(int) error, unpin func() error, cpuFor func(int) int) func(int) error {
	return func(workerID int) error {
		err := pin(cpuFor(workerID))
		if err == nil {
			return nil
		}
		if uerr := unpin(); uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}
}

// registerProbes exposes live queue and executor state through Control.
func (r *Runtime) registerProbes() {
	exec := r.executor
	r.control.RegisterDebugProbe("queue.len", func() any {
		return exec.Stats().Queue.Len
	})
	r.control.RegisterDebugProbe("queue.cap", func() any {
		return exec.Stats().Queue.Cap
	})
	r.control.RegisterDebugProbe("executor.workers", func() any {
		return exec.NumWorkers()
	})
	r.control.RegisterDebugProbe("executor.pending", func() any {
		return exec.Stats().Pending
	})
}

// applyReload resizes the pool when "num_workers" changed in Control.
func (r *Runtime) applyReload() {
	v, ok := r.control.GetConfig()["num_workers"]
	if !ok {
		return
	}
	n, ok := workerCount(v)
	if !ok {
		r.log.Warn().Interface("num_workers", v).Msg("ignoring invalid worker count")
		return
	}

	r.mu.RLock()
	exec, live := r.executor, r.started && !r.stopped
	r.mu.RUnlock()
	if !live || n == exec.NumWorkers() {
		return
	}
	// Resize is a no-op once the executor is closed.
	exec.Resize(n)
}

// workerCount accepts any positive integer value, including whole floats as
// produced by JSON decoding.
func workerCount(v any) (int, bool) {
	var n int64
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt32 {
			return 0, false
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
			return 0, false
		}
		n = int64(f)
	default:
		return 0, false
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// executorOrErr returns the running executor. Caller holds r.mu.
func (r *Runtime) executorOrErr() (*adapters.ExecutorAdapter, error) {
	if r.executor != nil {
		return r.executor, nil
	}
	if r.stopped {
		return nil, concurrency.ErrExecutorClosed
	}
	return nil, ErrNotStarted
}

// Submit dispatches a task to the executor pool for asynchronous execution.
func (r *Runtime) Submit(task func()) error {
	r.mu.RLock()
	exec, err := r.executorOrErr()
	r.mu.RUnlock()
	if err != nil {
		return err
	}
	return exec.Submit(task)
}

// SubmitBatch queues every task of b in order, all or nothing.
func (r *Runtime) SubmitBatch(b api.Batch[concurrency.TaskHandle]) error {
	r.mu.RLock()
	exec, err := r.executorOrErr()
	r.mu.RUnlock()
	if err != nil {
		return err
	}
	return exec.SubmitBatch(b)
}

// NewBatch returns an empty pooled batch. Hand it back with ReleaseBatch
// once submitted.
func (r *Runtime) NewBatch() *pool.TaskBatch[concurrency.TaskHandle] {
	return r.batches.Get()
}

// ReleaseBatch resets b and returns it to the pool.
func (r *Runtime) ReleaseBatch(b *pool.TaskBatch[concurrency.TaskHandle]) {
	r.batches.Put(b)
}

// Control returns the Control interface for dynamic config and metrics.
func (r *Runtime) Control() api.Control {
	return r.control
}

// Stats publishes the current executor and queue counters to the metrics
// registry, when metrics are enabled, and returns the merged control view.
func (r *Runtime) Stats() map[string]any {
	r.mu.RLock()
	exec := r.executor
	r.mu.RUnlock()

	if exec != nil && r.config.EnableMetrics {
		r.control.PublishMetrics(statsMetrics(exec.Stats()))
	}
	return r.control.Stats()
}

func statsMetrics(st concurrency.ExecutorStats) map[string]any {
	return map[string]any{
		"executor.workers":    st.Workers,
		"executor.submitted":  st.Submitted,
		"executor.completed":  st.Completed,
		"executor.stolen":     st.Stolen,
		"executor.panicked":   st.Panicked,
		"executor.pending":    st.Pending,
		"queue.len":           st.Queue.Len,
		"queue.cap":           st.Queue.Cap,
		"queue.pushes":        st.Queue.Pushes,
		"queue.pops":          st.Queue.Pops,
		"queue.empty_pops":    st.Queue.EmptyPops,
		"queue.grows":         st.Queue.Grows,
		"queue.refused_grows": st.Queue.RefusedGrows,
	}
}

// Shutdown detaches the runtime from Control reloads, stops intake, runs
// every accepted task and waits for the workers. Calling it again, or on a
// runtime never started, returns nil.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	exec := r.executor
	cancelReload := r.cancelReload
	r.cancelReload = nil
	r.mu.Unlock()

	cancelReload()
	if exec == nil {
		return nil
	}
	exec.Close()
	if r.config.EnableMetrics {
		r.control.PublishMetrics(statsMetrics(exec.Stats()))
	}
	st := exec.Stats()
	r.log.Info().
		Uint64("completed", st.Completed).
		Uint64("panicked", st.Panicked).
		Int("queue_cap", st.Queue.Cap).
		Msg("runtime stopped")
	return nil
}
