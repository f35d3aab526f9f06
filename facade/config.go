// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime configuration: compiled-in defaults overridable from a TOML file.

package facade

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/momentics/hioload-async/api"
)

// Config holds parameters immutable per run. NumWorkers alone can change
// later, through the "num_workers" key of the Control interface.
type Config struct {
	NumWorkers       int           `toml:"num_workers"`        // executor worker goroutines
	LocalQueueSize   int           `toml:"local_queue_size"`   // per-worker run queue slots
	FetchBatch       int           `toml:"fetch_batch"`        // tasks taken from the submission queue per visit
	MaxQueueCapacity int           `toml:"max_queue_capacity"` // submission queue growth limit, 0 = unlimited
	MemoryCheck      bool          `toml:"memory_check"`       // refuse growth beyond free RAM, page cache not counted
	SpinLock         bool          `toml:"spin_lock"`          // guard the submission queue with a spinlock
	CPUAffinity      bool          `toml:"cpu_affinity"`       // pin each worker thread to a CPU
	EnableMetrics    bool          `toml:"enable_metrics"`     // publish counters to the metrics registry
	EnableDebug      bool          `toml:"enable_debug"`       // register queue and executor debug probes
	LogLevel         string        `toml:"log_level"`          // zerolog level name
	IdleBackoffMax   time.Duration `toml:"idle_backoff_max"`   // cap of the idle worker wait

	// LogOutput receives log lines, stderr when nil.
	LogOutput io.Writer `toml:"-"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		NumWorkers:       runtime.NumCPU(),
		LocalQueueSize:   256,
		FetchBatch:       8,
		MaxQueueCapacity: 0,
		MemoryCheck:      true,
		SpinLock:         false,
		CPUAffinity:      false,
		EnableMetrics:    true,
		EnableDebug:      true,
		LogLevel:         "info",
		IdleBackoffMax:   time.Millisecond,
	}
}

// LoadConfig reads a TOML file over the defaults. Keys that match no field
// are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config %s: unknown keys %s: %w",
			path, strings.Join(keys, ", "), api.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects negative sizes and a max capacity that is not a power of two.
func (c *Config) Validate() error {
	switch {
	case c.NumWorkers < 0:
		return fmt.Errorf("num_workers %d: %w", c.NumWorkers, api.ErrInvalidArgument)
	case c.LocalQueueSize < 0:
		return fmt.Errorf("local_queue_size %d: %w", c.LocalQueueSize, api.ErrInvalidArgument)
	case c.FetchBatch < 0:
		return fmt.Errorf("fetch_batch %d: %w", c.FetchBatch, api.ErrInvalidArgument)
	case c.MaxQueueCapacity < 0, c.MaxQueueCapacity&(c.MaxQueueCapacity-1) != 0:
		return fmt.Errorf("max_queue_capacity %d must be a power of two: %w", c.MaxQueueCapacity, api.ErrInvalidArgument)
	case c.IdleBackoffMax < 0:
		return fmt.Errorf("idle_backoff_max %s: %w", c.IdleBackoffMax, api.ErrInvalidArgument)
	}
	return nil
}

// asMap is the view mirrored into the control config store.
func (c *Config) asMap() map[string]any {
	return map[string]any{
		"num_workers":        c.NumWorkers,
		"local_queue_size":   c.LocalQueueSize,
		"fetch_batch":        c.FetchBatch,
		"max_queue_capacity": c.MaxQueueCapacity,
		"memory_check":       c.MemoryCheck,
		"spin_lock":          c.SpinLock,
		"cpu_affinity":       c.CPUAffinity,
		"enable_metrics":     c.EnableMetrics,
		"enable_debug":       c.EnableDebug,
		"log_level":          c.LogLevel,
		"idle_backoff_max":   c.IdleBackoffMax.String(),
	}
}
