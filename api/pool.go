// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Recycling contract for short-lived submission objects such as task batches.

package api

// ObjectPool hands out reusable values. Put may reset the value before it is
// returned by a later Get.
type ObjectPool[T any] interface {
	Get() T
	Put(obj T)
}
