// File: internal/affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU affinity for worker threads. Platform-specific
// implementations live in files guarded by build tags.

package affinity

import (
	"errors"
	"runtime"
)

// ErrAffinityNotSupported indicates CPU affinity is not supported on this platform
var ErrAffinityNotSupported = errors.New("CPU affinity not supported")

// ErrInvalidCPU indicates a CPU outside the process's allowed set.
var ErrInvalidCPU = errors.New("cpu not in allowed set")

// PinCurrentThread locks the calling goroutine to its OS thread and binds
// that thread to cpuID. On failure the goroutine stays locked; callers that
// give up on pinning should call UnpinCurrentThread.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	return platformPin(cpuID)
}

// UnpinCurrentThread restores the process-wide CPU mask and unlocks the
// goroutine from its OS thread.
func UnpinCurrentThread() error {
	err := platformUnpin()
	runtime.UnlockOSThread()
	return err
}

// AllowedCPUs returns the CPUs the process may run on, in ascending order.
func AllowedCPUs() []int {
	return platformAllowedCPUs()
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// CPUForWorker spreads worker ids round-robin over the allowed CPUs.
func CPUForWorker(workerID int) int {
	cpus := AllowedCPUs()
	if len(cpus) == 0 || workerID < 0 {
		return 0
	}
	return cpus[workerID%len(cpus)]
}
