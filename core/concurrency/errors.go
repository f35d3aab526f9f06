// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"fmt"

	"github.com/momentics/hioload-async/api"
)

var (
	// ErrExecutorClosed indicates the executor has been shut down
	ErrExecutorClosed = fmt.Errorf("executor is closed: %w", api.ErrClosed)

	// ErrQueueGrowth indicates the FIFO queue refused to enlarge its buffer.
	// Nothing was enqueued and the queue state is unchanged.
	ErrQueueGrowth = fmt.Errorf("queue growth refused: %w", api.ErrResourceExhausted)
)
