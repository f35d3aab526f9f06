package adapters_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-async/adapters"
	"github.com/momentics/hioload-async/api"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	assert.Empty(t, ctrl.GetConfig(), "expected empty config on init")

	called := 0
	cancel := ctrl.OnReload(func() { called++ })
	assert.Equal(t, 1, ctrl.ReloadListeners())
	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1}))
	assert.Equal(t, 1, ctrl.GetConfig()["k"])
	assert.Equal(t, 1, called, "reload listener runs synchronously")

	cancel()
	assert.Zero(t, ctrl.ReloadListeners())
	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 2}))
	assert.Equal(t, 1, called, "cancelled listener must not run")

	err := ctrl.SetConfig(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInvalidArgument))
}

func TestControlAdapterStats(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.SetMetric("queue.len", 5)
	ctrl.PublishMetrics(map[string]any{"queue.cap": 64})
	ctrl.RegisterDebugProbe("answer", func() any { return 42 })

	stats := ctrl.Stats()
	assert.Equal(t, 5, stats["queue.len"])
	assert.Equal(t, 64, stats["queue.cap"])
	assert.Equal(t, 42, stats["debug.answer"])
	assert.Contains(t, stats, "debug.platform.cpus")
	assert.Contains(t, stats, "debug.platform.free_memory")

	assert.Equal(t, 42, ctrl.Debug().DumpState()["answer"])
}
