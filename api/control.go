// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control manages dynamic config, runtime metrics and debug probes of a runtime.
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	// Stats merges metrics with debug probe output (prefixed "debug.").
	Stats() map[string]any
	SetMetric(key string, value any)
	// OnReload registers fn for config changes and returns its removal func.
	OnReload(fn func()) (cancel func())
	RegisterDebugProbe(name string, fn func() any)
}
