// Package api
// Author: momentics@gmail.com
//
// CPU affinity and thread pinning definitions.

package api

// Affinity controls execution on particular CPUs.
type Affinity interface {
	// Pin locks the current goroutine to its OS thread and binds it to cpuID.
	Pin(cpuID int) error
	// Unpin removes affinity.
	Unpin() error
	// Get returns the CPU the adapter is bound to, or -1.
	Get() (cpuID int, err error)
}

// AffinityDescriptor is an immutable snapshot of a binding.
type AffinityDescriptor struct {
	CPUID  int
	Pinned bool
}
