// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import (
	"sync"

	"github.com/momentics/hioload-async/api"
)

// Ensure compile-time interface compliance.
var _ api.ObjectPool[*TaskBatch[int]] = (*BatchPool[int])(nil)

// SyncPool wraps sync.Pool for generic usage.
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a new SyncPool with a creator function.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{
		pool: &sync.Pool{New: func() any { return creator() }},
	}
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}

// BatchPool recycles TaskBatch instances; Put resets them.
type BatchPool[T any] struct {
	pool *SyncPool[*TaskBatch[T]]
}

// NewBatchPool creates an empty batch pool.
func NewBatchPool[T any]() *BatchPool[T] {
	return &BatchPool[T]{pool: NewSyncPool(NewTaskBatch[T])}
}

// Get returns an empty batch.
func (bp *BatchPool[T]) Get() *TaskBatch[T] {
	return bp.pool.Get()
}

// Put resets b and makes it available for reuse.
func (bp *BatchPool[T]) Put(b *TaskBatch[T]) {
	if b == nil {
		return
	}
	b.Reset()
	bp.pool.Put(b)
}
