package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Type(t *testing.T) {
	t.Run("Should build from error with kind and details", func(t *testing.T) {
		e := NewError(errors.New("boom"), ErrorTypeError, map[string]any{"k": "v"})
		assert.Equal(t, "boom", e.Error())
		m := e.AsMap()
		assert.Equal(t, "boom", m["message"])
		assert.Equal(t, "TypeError", m["code"])
		assert.Equal(t, map[string]any{"k": "v"}, m["details"])
	})
	t.Run("Should build from nil error and handle empty/nil cases", func(t *testing.T) {
		e := NewError(nil, "", nil)
		assert.Equal(t, "unknown error", e.Error())
		var enil *Error
		assert.Equal(t, "", enil.Error())
		assert.Nil(t, enil.AsMap())
		assert.Nil(t, (&Error{}).AsMap())
	})
}

func Test_KindOf(t *testing.T) {
	t.Run("Should extract the kind through an unwrap chain", func(t *testing.T) {
		base := NewError(errors.New("boom"), ErrorNameError, nil)
		wrapped := fmt.Errorf("wrapped: %w", base)
		kind, ok := KindOf(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrorNameError, kind)
	})
	t.Run("Should report false for an error that never passed through NewError", func(t *testing.T) {
		_, ok := KindOf(errors.New("raw"))
		assert.False(t, ok)
	})
}

func Test_ExitCode(t *testing.T) {
	t.Run("Should return 0 for a nil error", func(t *testing.T) {
		assert.Equal(t, 0, ExitCode(nil))
	})
	t.Run("Should return 1 for user-input and configuration errors", func(t *testing.T) {
		for _, kind := range []ErrorKind{
			ErrorParseError, ErrorTypeError, ErrorUnsupportedConstruct,
			ErrorClosureError, ErrorNameError, ErrorExecutableConflictError,
			ErrorConfigurationError,
		} {
			err := NewError(errors.New("x"), kind, nil)
			assert.Equal(t, 1, ExitCode(err), "kind %s", kind)
		}
	})
	t.Run("Should return 2 for platform errors", func(t *testing.T) {
		err := NewError(errors.New("x"), ErrorPlatformError, nil)
		assert.Equal(t, 2, ExitCode(err))
	})
	t.Run("Should return 3 for block-shape and internal errors, and for unwrapped errors", func(t *testing.T) {
		assert.Equal(t, 3, ExitCode(NewError(errors.New("x"), ErrorBlockShapeError, nil)))
		assert.Equal(t, 3, ExitCode(NewError(errors.New("x"), ErrorInternal, nil)))
		assert.Equal(t, 3, ExitCode(errors.New("raw")))
	})
}
