// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"maps"

	"github.com/momentics/hioload-async/api"
	"github.com/momentics/hioload-async/control"
)

var _ api.Control = (*ControlAdapter)(nil)

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	if cfg == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil config map")
	}
	c.config.SetConfig(cfg)
	return nil
}

func (c *ControlAdapter) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

// OnReload registers fn for config changes made through this adapter.
func (c *ControlAdapter) OnReload(fn func()) (cancel func()) {
	return c.config.OnReload(fn)
}

// ReloadListeners returns the number of registered reload listeners.
func (c *ControlAdapter) ReloadListeners() int {
	return c.config.Listeners()
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

// PublishMetrics writes a group of metrics under one timestamp.
func (c *ControlAdapter) PublishMetrics(values map[string]any) {
	c.metrics.SetMany(maps.Clone(values))
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Debug exposes the probe registry.
func (c *ControlAdapter) Debug() api.Debug {
	return c.debug
}
