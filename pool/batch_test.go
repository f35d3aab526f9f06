package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskBatch_Order(t *testing.T) {
	b := NewTaskBatch[string]()
	for _, s := range []string{"a", "b", "c"} {
		b.Append(s)
	}
	require.Equal(t, 3, b.Len())
	assert.Equal(t, "a", b.Get(0))
	assert.Equal(t, "c", b.Get(2))
	assert.Equal(t, []string{"a", "b", "c"}, b.Slice())

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Slice())
}

func TestTaskBatch_ZeroValue(t *testing.T) {
	var b TaskBatch[int]
	assert.Equal(t, 0, b.Len())
	assert.NotPanics(t, b.Reset)
	assert.Panics(t, func() { b.Get(0) })

	for i := 0; i < 100; i++ {
		b.Append(i)
	}
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, 99, b.Get(99))
	assert.Panics(t, func() { b.Get(100) })
}

func TestBatchPool_ResetsOnPut(t *testing.T) {
	bp := NewBatchPool[int]()
	b := bp.Get()
	require.NotNil(t, b)
	b.Append(1)
	b.Append(2)
	bp.Put(b)
	assert.Equal(t, 0, b.Len())

	assert.Equal(t, 0, bp.Get().Len())
	assert.NotPanics(t, func() { bp.Put(nil) })
}
