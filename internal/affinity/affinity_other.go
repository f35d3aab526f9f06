//go:build !linux

// File: internal/affinity/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback for platforms without thread affinity support.

package affinity

import "runtime"

func platformPin(cpuID int) error {
	return ErrAffinityNotSupported
}

// platformUnpin is a no-op: nothing was pinned.
func platformUnpin() error {
	return nil
}

func platformAllowedCPUs() []int {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus
}
