package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "device missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("register device: %w", New(CodeAlreadyExists, "did taken"))
		assert.True(t, HasCode(err, CodeAlreadyExists))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("preserves cause chain", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "store unavailable")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInactiveDevice, CodeOf(New(CodeInactiveDevice, "device deactivated")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untyped")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "did taken", MessageOf(New(CodeAlreadyExists, "did taken")))
	assert.Empty(t, MessageOf(errors.New("untyped")))
}
