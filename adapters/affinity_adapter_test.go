package adapters_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-async/adapters"
	"github.com/momentics/hioload-async/internal/affinity"
)

func TestAffinityAdapterPinUnpin(t *testing.T) {
	a := adapters.NewAffinityAdapter()
	cpu, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, -1, cpu)
	require.NoError(t, a.Unpin(), "unpinning an unbound adapter is a no-op")

	err = a.Pin(-1)
	if runtime.GOOS != "linux" {
		assert.True(t, errors.Is(err, affinity.ErrAffinityNotSupported))
		assert.False(t, a.Descriptor().Pinned)
		return
	}
	require.NoError(t, err)
	d := a.Descriptor()
	assert.True(t, d.Pinned)
	assert.Equal(t, affinity.AllowedCPUs()[0], d.CPUID)

	require.NoError(t, a.Unpin())
	cpu, _ = a.Get()
	assert.Equal(t, -1, cpu)
	assert.False(t, a.Descriptor().Pinned)
}
