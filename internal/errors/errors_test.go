package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

func TestNew(t *testing.T) {
	t.Parallel()

	err := apperrors.New(apperrors.CodeUser, "bad input")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeUser, err.Code)
	assert.Equal(t, "bad input", err.Message)
	assert.NoError(t, err.Cause)
}

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *apperrors.StructuredError
		expected string
	}{
		{
			name:     "without cause",
			err:      apperrors.New(apperrors.CodeUser, "endpoints.yaml validation failed: x"),
			expected: "USER ERROR endpoints.yaml validation failed: x",
		},
		{
			name:     "with cause",
			err:      apperrors.Wrap(apperrors.CodeInternal, "failed", stderrors.New("root cause")),
			expected: "INTERNAL ERROR failed: root cause",
		},
		{
			name:     "formatted",
			err:      apperrors.Newf(apperrors.CodeUser, "'%s' is not valid", "x.yaml"),
			expected: "USER ERROR 'x.yaml' is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("root cause")
	err := apperrors.WrapWithContext(apperrors.CodeUser, "wrapped", cause, map[string]any{"path": "/x"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "/x", err.Context["path"])
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tagged := apperrors.New(apperrors.CodeUser, "nope")
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(tagged))
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(fmt.Errorf("outer: %w", tagged)))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(stderrors.New("plain")))
}
