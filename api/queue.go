// File: api/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Submission queue contract used between producers and the worker pool.

package api

// TaskQueue is an unbounded, thread-safe FIFO hand-off queue.
//
// Pop never blocks: on an empty queue it returns the zero value of T, which
// callers treat as "no work available right now".
type TaskQueue[T any] interface {
	// Push appends v. It only fails when the queue cannot grow.
	Push(v T) error
	// Pop removes the oldest item or returns the zero value when empty.
	Pop() T
	// TryPop is the comma-ok form of Pop.
	TryPop() (T, bool)
	// Len returns the number of queued items.
	Len() int
	// Cap returns the current buffer capacity.
	Cap() int
}
