// Package pool: ordered task batches for bulk submission.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TaskBatch accumulates items in FIFO order so they can be handed to the
// submission queue under a single lock acquisition.
// This implementation is NOT thread-safe.

package pool

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-async/api"
)

// Ensure compile-time interface compliance.
var _ api.Batch[int] = (*TaskBatch[int])(nil)

// TaskBatch is an ordered, growable batch of items. The zero value is ready to use.
type TaskBatch[T any] struct {
	q *queue.Queue
}

// NewTaskBatch creates an empty batch.
func NewTaskBatch[T any]() *TaskBatch[T] {
	return &TaskBatch[T]{q: queue.New()}
}

// Append adds an item at the end of the batch.
func (b *TaskBatch[T]) Append(v T) {
	if b.q == nil {
		b.q = queue.New()
	}
	b.q.Add(v)
}

// Len returns number of items in the batch.
func (b *TaskBatch[T]) Len() int {
	if b.q == nil {
		return 0
	}
	return b.q.Length()
}

// Get retrieves item at index. It panics if idx is out of range.
func (b *TaskBatch[T]) Get(idx int) T {
	if b.q == nil {
		panic("pool: index out of range on empty TaskBatch")
	}
	return b.q.Get(idx).(T)
}

// Slice copies the items, in order, into a new slice.
func (b *TaskBatch[T]) Slice() []T {
	out := make([]T, b.Len())
	for i := range out {
		out[i] = b.Get(i)
	}
	return out
}

// Reset empties the batch.
func (b *TaskBatch[T]) Reset() {
	if b.q == nil {
		return
	}
	for b.q.Length() > 0 {
		b.q.Remove()
	}
}
