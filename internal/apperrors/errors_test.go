package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"already reviewed is a transition error", ErrAlreadyReviewed, ErrInvalidTransition, true},
		{"product not found is a validation error", ErrProductNotFound, ErrValidation, true},
		{"wrapped product not found", fmt.Errorf("product 7: %w", ErrProductNotFound), ErrProductNotFound, true},
		{"validation error matches kind", Validation("amount must be positive"), ErrValidation, true},
		{"validation error is not not-found", Validation("x"), ErrNotFound, false},
		{"insufficient balance is not validation", ErrInsufficientBalance, ErrValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestValidationReason(t *testing.T) {
	err := fmt.Errorf("submit: %w", Validation("amount must be positive, got %d", -5))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount must be positive, got -5", ve.Reason)
}
