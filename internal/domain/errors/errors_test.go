package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("BAD", "bad input")
	assert.Equal(t, "bad input", err.Error())

	wrapped := NewInternalError("decode failed").WithCause(fmt.Errorf("eof"))
	assert.Equal(t, "decode failed: eof", wrapped.Error())
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		errType  ErrorType
		expected bool
	}{
		{"validation", NewValidationError("X", "x"), ErrorTypeValidation, true},
		{"wrapped analysis", fmt.Errorf("run: %w", NewAnalysisError("c-1", "boom")), ErrorTypeAnalysis, true},
		{"mismatch", NewInternalError("x"), ErrorTypeValidation, false},
		{"plain error", errors.New("plain"), ErrorTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsType(tt.err, tt.errType))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewInternalError("x")))
	assert.False(t, IsRetryable(NewAnalysisError("c-1", "x")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestNewAnalysisError_Details(t *testing.T) {
	err := NewAnalysisError("cust-42", "failed")
	assert.Equal(t, "cust-42", err.Details["customer_id"])
	assert.Equal(t, "ANALYSIS_FAILED", err.Code)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	base := errors.New("base")
	w := Wrap(base, "ctx")
	assert.ErrorIs(t, w, base)
	assert.Equal(t, "ctx: base", w.Error())
}
