// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with snapshot reads and reload listeners.

package control

import (
	"maps"
	"slices"
	"sync"
)

// ConfigStore is a dynamic key/value map with snapshot reads and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []*reloadListener
}

type reloadListener struct {
	fn func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return maps.Clone(cs.config)
}

// Get returns a single value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// SetConfig merges new values, then runs every listener synchronously
// outside the lock.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	maps.Copy(cs.config, newCfg)
	listeners := slices.Clone(cs.listeners)
	cs.mu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
}

// OnReload registers a listener hook called on config changes. The returned
// func removes it; calling it more than once is harmless.
func (cs *ConfigStore) OnReload(fn func()) (cancel func()) {
	l := &reloadListener{fn: fn}
	cs.mu.Lock()
	cs.listeners = append(cs.listeners, l)
	cs.mu.Unlock()

	return func() {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.listeners = slices.DeleteFunc(cs.listeners, func(x *reloadListener) bool {
			return x == l
		})
	}
}

// Listeners returns the number of registered reload listeners.
func (cs *ConfigStore) Listeners() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.listeners)
}
