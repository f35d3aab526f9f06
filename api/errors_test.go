package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapsToSentinel(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want error
		name string
	}{
		{ErrCodeInvalidArgument, ErrInvalidArgument, "invalid_argument"},
		{ErrCodeResourceExhausted, ErrResourceExhausted, "resource_exhausted"},
		{ErrCodeNotSupported, ErrNotSupported, "not_supported"},
		{ErrCodeClosed, ErrClosed, "closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewError(tt.code, "boom"))
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, tt.name, tt.code.String())
		})
	}

	assert.Nil(t, NewError(ErrCodeInternal, "x").Unwrap())
	assert.Equal(t, "internal", ErrCodeInternal.String())
}

func TestErrorContext(t *testing.T) {
	e := NewError(ErrCodeResourceExhausted, "queue full")
	assert.Equal(t, "queue full", e.Error())

	e.WithContext("cap", 64)
	assert.Equal(t, "queue full (context: map[cap:64])", e.Error())

	var bare Error
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])
}
