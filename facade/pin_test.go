package facade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinHook(t *testing.T) {
	errPin := errors.New("pin refused")
	errRestore := errors.New("restore failed")

	var pinned []int
	unpins := 0
	pin := func(cpu int) error {
		pinned = append(pinned, cpu)
		return nil
	}
	failPin := func(cpu int) error {
		pinned = append(pinned, cpu)
		return errPin
	}
	unpin := func() error {
		unpins++
		return nil
	}
	double := func(id int) int { return id * 2 }

	require.NoError(t, pinHook(pin, unpin, double)(1))
	assert.Equal(t, []int{2}, pinned)
	assert.Zero(t, unpins)

	err := pinHook(failPin, unpin, double)(3)
	assert.ErrorIs(t, err, errPin)
	assert.Equal(t, []int{2, 6}, pinned)
	assert.Equal(t, 1, unpins, "failed pin must release the thread")

	err = pinHook(failPin, func() error { return errRestore }, double)(0)
	assert.ErrorIs(t, err, errPin)
	assert.ErrorIs(t, err, errRestore)
}

func TestWorkerCount(t *testing.T) {
	tests := []struct {
		value  any
		want   int
		wantOK bool
	}{
		{8, 8, true},
		{int32(8), 8, true},
		{int64(8), 8, true},
		{uint(8), 8, true},
		{uint64(8), 8, true},
		{float32(8), 8, true},
		{float64(8), 8, true},
		{float64(8.5), 0, false},
		{0, 0, false},
		{int64(-1), 0, false},
		{uint64(1) << 40, 0, false},
		{"8", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		n, ok := workerCount(tt.value)
		assert.Equal(t, tt.wantOK, ok, "%T(%v)", tt.value, tt.value)
		assert.Equal(t, tt.want, n, "%T(%v)", tt.value, tt.value)
	}
}
