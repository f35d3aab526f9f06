// Package api
// Author: momentics@gmail.com
//
// Batching primitives for bulk submission.

package api

// Batch defines an ordered batch of items.
type Batch[T any] interface {
	// Len returns the number of items in the batch.
	Len() int
	// Get retrieves item at index.
	Get(index int) T
}
