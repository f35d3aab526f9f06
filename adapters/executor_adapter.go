// File: adapters/executor_adapter.go
// Package adapters provides glue between internal concurrency and api.Executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements the api.Executor interface by delegating to
// concurrency.Executor. Besides the contract it exposes Close and Stats for
// owners that manage the executor lifecycle.

package adapters

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/core/concurrency"
)

var _ api.Executor = (*ExecutorAdapter)(nil)

// ExecutorAdapter wraps a concurrency.Executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec *concurrency.Executor
}

// NewExecutorAdapter starts an executor built from cfg.
func NewExecutorAdapter(cfg concurrency.ExecutorConfig) *ExecutorAdapter {
	return &ExecutorAdapter{exec: concurrency.NewExecutor(cfg)}
}

// Submit dispatches a task function to be executed asynchronously.
// Returns an error if the executor has been closed or the submission queue
// refused to grow.
func (ea *ExecutorAdapter) Submit(task func()) error {
	return ea.exec.Submit(task)
}

// SubmitBatch queues every handle of b, all or nothing.
func (ea *ExecutorAdapter) SubmitBatch(b api.Batch[concurrency.TaskHandle]) error {
	return ea.exec.SubmitBatch(b)
}

// NumWorkers returns the current number of active worker goroutines.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.NumWorkers()
}

// Resize dynamically adjusts the size of the worker pool.
func (ea *ExecutorAdapter) Resize(newCount int) {
	ea.exec.Resize(newCount)
}

// Stats returns executor and submission queue counters.
func (ea *ExecutorAdapter) Stats() concurrency.ExecutorStats {
	return ea.exec.Stats()
}

// Close stops intake and waits until every accepted task has run.
func (ea *ExecutorAdapter) Close() {
	ea.exec.Close()
}
