package concurrency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskHandle_Empty(t *testing.T) {
	var h TaskHandle
	assert.False(t, h.Valid())
	assert.Zero(t, h.ID())
	assert.NotPanics(t, h.Run)

	assert.False(t, NewTaskHandle(nil).Valid())
}

func TestTaskHandle_TakeAndRun(t *testing.T) {
	calls := 0
	h := NewTaskHandle(func() { calls++ })
	assert.True(t, h.Valid())
	assert.NotZero(t, h.ID())

	moved := h.Take()
	assert.False(t, h.Valid(), "source must be empty after Take")
	assert.True(t, moved.Valid())

	moved.Run()
	moved.Run()
	assert.Equal(t, 1, calls, "a handle runs at most once")
	assert.False(t, moved.Valid())
}

func TestTaskHandle_UniqueIDs(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := NewTaskHandle(func() {}).ID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
