// File: core/concurrency/fifo_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFOQueue is the submission queue for work originating outside the worker
// pool. It is a power-of-two ring that doubles when full, with one lock held
// across every method body. There is no lock-free fast path.

package concurrency

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pbnjay/memory"

	"github.com/momentics/hioload-async/api"
)

// fifoInitialCapacity is the buffer size of a new FIFOQueue.
const fifoInitialCapacity = 32

// Ensure compile-time interface compliance.
var _ api.TaskQueue[TaskHandle] = (*FIFOQueue[TaskHandle])(nil)

// freeMemory reports free system memory in bytes, 0 when unknown.
var freeMemory = memory.FreeMemory

// FIFOOption configures a FIFOQueue.
type FIFOOption func(*fifoOptions)

type fifoOptions struct {
	locker      sync.Locker
	maxCapacity uint64
	memoryCheck bool
}

// WithLocker sets the guard protecting the queue. Defaults to a *sync.Mutex.
func WithLocker(l sync.Locker) FIFOOption {
	return func(o *fifoOptions) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithMaxCapacity refuses growth past n slots. n <= 0 means unlimited.
func WithMaxCapacity(n int) FIFOOption {
	return func(o *fifoOptions) {
		if n > 0 {
			o.maxCapacity = uint64(n)
		} else {
			o.maxCapacity = 0
		}
	}
}

// WithMemoryCheck toggles the free-memory check performed before growth.
// The check compares the new buffer size against the host's free RAM as
// reported by the kernel, which on Linux excludes reclaimable page cache, so
// a host with a large cache may refuse growth it could satisfy. Disable it
// when queues are expected to reach sizes close to free RAM.
func WithMemoryCheck(enabled bool) FIFOOption {
	return func(o *fifoOptions) {
		o.memoryCheck = enabled
	}
}

// FIFOStats is a point-in-time view of queue counters.
type FIFOStats struct {
	Len          int
	Cap          int
	Pushes       uint64
	Pops         uint64
	EmptyPops    uint64
	Grows        uint64
	RefusedGrows uint64
}

type fifoMetrics struct {
	pushes       atomic.Uint64
	pops         atomic.Uint64
	emptyPops    atomic.Uint64
	grows        atomic.Uint64
	refusedGrows atomic.Uint64
}

// FIFOQueue is an unbounded multi-producer multi-consumer FIFO.
//
// Live items occupy [head, tail) modulo the capacity. One slot always stays
// unused so head == tail means empty and the queue is full when
// head == tail+1. A full queue doubles and relinearizes on the next Push.
type FIFOQueue[T any] struct {
	lock  sync.Locker
	items []T
	mask  uint64
	head  uint64
	tail  uint64

	maxCapacity uint64
	memoryCheck bool

	metrics fifoMetrics
}

// NewFIFOQueue creates an empty queue with capacity 32.
func NewFIFOQueue[T any](opts ...FIFOOption) *FIFOQueue[T] {
	o := fifoOptions{memoryCheck: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locker == nil {
		o.locker = &sync.Mutex{}
	}
	return &FIFOQueue[T]{
		lock:        o.locker,
		items:       make([]T, fifoInitialCapacity),
		mask:        fifoInitialCapacity - 1,
		maxCapacity: o.maxCapacity,
		memoryCheck: o.memoryCheck,
	}
}

// Push appends v to the tail, doubling the buffer first if the queue is full.
//
// The only error is a wrapped ErrQueueGrowth, returned before anything is
// mutated: v is not enqueued and the queue keeps its previous state.
func (q *FIFOQueue[T]) Push(v T) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.head == (q.tail+1)&q.mask {
		if err := q.grow(uint64(len(q.items)) << 1); err != nil {
			return err
		}
	}

	q.items[q.tail] = v
	q.tail = (q.tail + 1) & q.mask
	q.metrics.pushes.Add(1)
	return nil
}

// PushBatch appends every item of b in order under a single lock hold.
// Either all items are enqueued or, on a growth error, none are.
func (q *FIFOQueue[T]) PushBatch(b api.Batch[T]) error {
	n := b.Len()
	if n == 0 {
		return nil
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	// One slot stays reserved after the batch lands.
	need := q.size() + uint64(n) + 1
	newCap := uint64(len(q.items))
	for newCap < need {
		newCap <<= 1
	}
	if newCap != uint64(len(q.items)) {
		if err := q.grow(newCap); err != nil {
			return err
		}
	}

	for i := 0; i < n; i++ {
		q.items[q.tail] = b.Get(i)
		q.tail = (q.tail + 1) & q.mask
	}
	q.metrics.pushes.Add(uint64(n))
	return nil
}

// Pop removes and returns the head item. On an empty queue it returns the
// zero value of T and changes nothing.
func (q *FIFOQueue[T]) Pop() T {
	v, _ := q.TryPop()
	return v
}

// TryPop is Pop reporting whether an item was removed.
func (q *FIFOQueue[T]) TryPop() (T, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.popLocked()
}

// PopBatch appends up to limit items to dst in FIFO order and returns it.
func (q *FIFOQueue[T]) PopBatch(dst []T, limit int) []T {
	if limit <= 0 {
		return dst
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	for i := 0; i < limit; i++ {
		v, ok := q.popLocked()
		if !ok {
			break
		}
		dst = append(dst, v)
	}
	return dst
}

// Len returns the number of queued items.
func (q *FIFOQueue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return int(q.size())
}

// Cap returns the current buffer size. It never shrinks.
func (q *FIFOQueue[T]) Cap() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// IsEmpty reports whether nothing is queued.
func (q *FIFOQueue[T]) IsEmpty() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.head == q.tail
}

// Stats returns the queue counters together with its current length and capacity.
func (q *FIFOQueue[T]) Stats() FIFOStats {
	q.lock.Lock()
	n, c := int(q.size()), len(q.items)
	q.lock.Unlock()

	return FIFOStats{
		Len:          n,
		Cap:          c,
		Pushes:       q.metrics.pushes.Load(),
		Pops:         q.metrics.pops.Load(),
		EmptyPops:    q.metrics.emptyPops.Load(),
		Grows:        q.metrics.grows.Load(),
		RefusedGrows: q.metrics.refusedGrows.Load(),
	}
}

// popLocked takes the head item and clears its slot. Caller holds q.lock.
func (q *FIFOQueue[T]) popLocked() (v T, ok bool) {
	if q.head == q.tail {
		q.metrics.emptyPops.Add(1)
		return v, false
	}

	var zero T
	v = q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) & q.mask
	q.metrics.pops.Add(1)
	return v, true
}

// size is the number of live items. Caller holds q.lock.
func (q *FIFOQueue[T]) size() uint64 {
	return (q.tail - q.head) & q.mask
}

// grow moves the live items, in order, to the front of a new buffer of
// newCap slots. Nothing is committed unless the allocation is allowed.
// Caller holds q.lock.
func (q *FIFOQueue[T]) grow(newCap uint64) error {
	if err := q.checkGrowth(newCap); err != nil {
		q.metrics.refusedGrows.Add(1)
		return err
	}

	n := q.size()
	items := make([]T, newCap)
	if q.head <= q.tail {
		copy(items, q.items[q.head:q.tail])
	} else {
		k := copy(items, q.items[q.head:])
		copy(items[k:], q.items[:q.tail])
	}

	q.items = items
	q.mask = newCap - 1
	q.head = 0
	q.tail = n
	q.metrics.grows.Add(1)
	return nil
}

// checkGrowth applies the capacity limit and the free-memory check. A refusal
// wraps ErrQueueGrowth and an *api.Error whose context holds the numbers.
func (q *FIFOQueue[T]) checkGrowth(newCap uint64) error {
	if q.maxCapacity > 0 && newCap > q.maxCapacity {
		cause := api.NewError(api.ErrCodeResourceExhausted, "capacity over limit").
			WithContext("capacity", newCap).
			WithContext("limit", q.maxCapacity)
		return fmt.Errorf("%w: %w", ErrQueueGrowth, cause)
	}
	if q.memoryCheck {
		var zero T
		need := newCap * uint64(unsafe.Sizeof(zero))
		if free := freeMemory(); free > 0 && need > free {
			cause := api.NewError(api.ErrCodeResourceExhausted, "buffer larger than free memory").
				WithContext("capacity", newCap).
				WithContext("bytes", need).
				WithContext("free", free)
			return fmt.Errorf("%w: %w", ErrQueueGrowth, cause)
		}
	}
	return nil
}
