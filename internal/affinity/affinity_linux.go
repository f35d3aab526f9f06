//go:build linux

// File: internal/affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux thread affinity via sched_setaffinity, no cgo required.

package affinity

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	initialMaskOnce sync.Once
	initialMask     unix.CPUSet
	initialMaskErr  error
)

// processMask returns the affinity mask the process started with.
func processMask() (unix.CPUSet, error) {
	initialMaskOnce.Do(func() {
		initialMaskErr = unix.SchedGetaffinity(0, &initialMask)
	})
	return initialMask, initialMaskErr
}

func platformPin(cpuID int) error {
	allowed, err := processMask()
	if err != nil {
		return fmt.Errorf("affinity: read process mask: %w", err)
	}
	if cpuID < 0 || !allowed.IsSet(cpuID) {
		return fmt.Errorf("affinity: cpu %d: %w", cpuID, ErrInvalidCPU)
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	// pid 0 targets the calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

func platformUnpin() error {
	mask, err := processMask()
	if err != nil {
		return fmt.Errorf("affinity: read process mask: %w", err)
	}
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return fmt.Errorf("affinity: restore mask: %w", err)
	}
	return nil
}

func platformAllowedCPUs() []int {
	mask, err := processMask()
	if err != nil {
		return nil
	}
	cpus := make([]int, 0, mask.Count())
	for i := 0; i < len(mask)*64; i++ {
		if mask.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus
}
