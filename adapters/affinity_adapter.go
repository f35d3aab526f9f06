// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface, delegating to
//   internal/affinity for CPU pinning of the calling thread.

package adapters

import (
	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/internal/affinity"
)

var _ api.Affinity = (*AffinityAdapter)(nil)

// AffinityAdapter tracks the binding made through it. It is meant to be
// owned by a single goroutine, the one being pinned.
type AffinityAdapter struct {
	currentCPU int
	pinned     bool
}

// NewAffinityAdapter creates an unbound adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{currentCPU: -1}
}

// Pin binds the calling thread to cpuID. A negative cpuID picks the first
// CPU the process is allowed to run on.
func (a *AffinityAdapter) Pin(cpuID int) error {
	if cpuID < 0 {
		cpuID = affinity.CPUForWorker(0)
	}
	if err := affinity.PinCurrentThread(cpuID); err != nil {
		_ = affinity.UnpinCurrentThread()
		return err
	}
	a.currentCPU = cpuID
	a.pinned = true
	return nil
}

// Unpin restores the process mask and releases the OS thread. Unpinning an
// unbound adapter does nothing.
func (a *AffinityAdapter) Unpin() error {
	if !a.pinned {
		return nil
	}
	if err := affinity.UnpinCurrentThread(); err != nil {
		return err
	}
	a.pinned = false
	a.currentCPU = -1
	return nil
}

// Get returns the bound CPU, -1 when unbound.
func (a *AffinityAdapter) Get() (int, error) {
	return a.currentCPU, nil
}

// Descriptor returns a snapshot of the current binding state.
func (a *AffinityAdapter) Descriptor() api.AffinityDescriptor {
	return api.AffinityDescriptor{
		CPUID:  a.currentCPU,
		Pinned: a.pinned,
	}
}
