// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "sync/atomic"

// TaskFunc is a unit of work to execute.
type TaskFunc = func()

var taskSeq atomic.Uint64

// TaskHandle owns one unit of deferred work.
//
// The zero value is the empty handle: queues return it when nothing is
// pending. Handles are passed by value, so ownership is tracked by
// convention; Take and Run empty the source.
type TaskHandle struct {
	fn TaskFunc
	id uint64
}

// NewTaskHandle wraps fn. A nil fn yields the empty handle.
func NewTaskHandle(fn TaskFunc) TaskHandle {
	if fn == nil {
		return TaskHandle{}
	}
	return TaskHandle{fn: fn, id: taskSeq.Add(1)}
}

// Valid reports whether the handle carries work.
func (t TaskHandle) Valid() bool {
	return t.fn != nil
}

// ID returns the process-unique task id, 0 for the empty handle.
func (t TaskHandle) ID() uint64 {
	return t.id
}

// Take moves the work out of t, leaving t empty.
func (t *TaskHandle) Take() TaskHandle {
	h := *t
	*t = TaskHandle{}
	return h
}

// Run executes the work at most once. Running an empty handle does nothing.
func (t *TaskHandle) Run() {
	h := t.Take()
	if h.fn != nil {
		h.fn()
	}
}
