// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable batches and object pools for the submission path.
package pool
