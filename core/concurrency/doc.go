// Package concurrency holds the task hand-off machinery of hioload-async.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFOQueue is the submission channel for work coming from goroutines outside
// the pool. Executor runs that work on a fixed set of workers, each owning a
// bounded LockFreeQueue that idle peers steal from.
package concurrency
