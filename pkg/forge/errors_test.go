package forge

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without cause",
			err:      validationError(msgBatchSize, nil),
			expected: "[VALIDATION] Batch size must be a non-negative integer",
		},
		{
			name:     "with cause",
			err:      &Error{Code: ErrCodeConfiguration, Message: "bad binding", Cause: errors.New("root")},
			expected: "[CONFIGURATION] bad binding: root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", configurationError(msgNoAdapter, nil))

	if !errors.Is(err, ErrConfiguration) {
		t.Error("expected configuration error to match ErrConfiguration")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("configuration error must not match ErrValidation")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: ErrCodeValidation, Message: "bad", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}
