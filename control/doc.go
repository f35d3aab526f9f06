// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics and debug introspection for hioload-async.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and merged updates with cancellable reload listeners
//   - A metrics registry fed from queue and executor counters
//   - Named debug probes, including host memory and CPU probes
package control
