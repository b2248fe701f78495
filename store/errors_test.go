package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFail(t *testing.T) {
	assert.NoError(t, Fail("noop", nil))

	cause := errors.New("disk full")
	err := Fail("store node", cause)
	assert.ErrorIs(t, err, ErrFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store: store node: disk full", err.Error())

	wrapped := fmt.Errorf("voctree: train: %w", err)
	var se *Error
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "store node", se.Op)

	assert.Same(t, err, Fail("outer", err), "already classified errors are kept")
}

func TestFail_NotFoundPassesThrough(t *testing.T) {
	err := Fail("find node", fmt.Errorf("node x: %w", ErrNotFound))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrFailure)
}

func TestFail_ContextCancellation(t *testing.T) {
	err := Fail("begin", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrFailure)
}
