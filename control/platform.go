// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Host probes shared by every platform.

package control

import (
	"runtime"

	"github.com/pbnjay/memory"
)

// RegisterPlatformProbes sets host-level debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.total_memory", func() any {
		return memory.TotalMemory()
	})
	dp.RegisterProbe("platform.free_memory", func() any {
		return memory.FreeMemory()
	})
}
