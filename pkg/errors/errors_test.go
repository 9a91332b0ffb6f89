package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			err:      New(CodeIO, "cannot read net"),
			expected: "[IO_ERROR] cannot read net",
		},
		{
			name:     "error with wrapped error",
			err:      Wrap(CodeReducerFailure, "reduce exited", fmt.Errorf("exit status 2")),
			expected: "[REDUCER_FAILURE] reduce exited: exit status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Is(t *testing.T) {
	err := Wrap(CodeMalformedEquation, "cannot classify line", fmt.Errorf("bad token"))

	assert.True(t, errors.Is(err, ErrMalformedEquation))
	assert.False(t, errors.Is(err, ErrMalformedMatrix))
	assert.True(t, IsMalformedEquation(err))
	assert.False(t, IsOracleFailure(err))
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("no such file")
	err := Wrap(CodeIO, "open marking file", inner)

	assert.Equal(t, inner, errors.Unwrap(err))
	assert.True(t, IsIOError(err))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidMarking, "bad token count %q", "p0*x")
	assert.Equal(t, `[INVALID_MARKING] bad token count "p0*x"`, err.Error())
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeOracleFailure, GetErrorCode(Wrap(CodeOracleFailure, "exit 1", nil)))
	assert.Equal(t, CodeUnknown, GetErrorCode(fmt.Errorf("plain error")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "exit 1", GetErrorMessage(New(CodeOracleFailure, "exit 1")))
	assert.Equal(t, "plain error", GetErrorMessage(fmt.Errorf("plain error")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
