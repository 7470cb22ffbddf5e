package validation

import "github.com/AlenaMolokova/bazario/internal/constants"

type PasswordValidator interface {
	ValidatePassword(password string) bool
}

type DefaultPasswordValidator struct{}

func NewDefaultPasswordValidator() *DefaultPasswordValidator {
	return &DefaultPasswordValidator{}
}

func (v *DefaultPasswordValidator) ValidatePassword(password string) bool {
	return len(password) >= constants.MinPasswordLength
}
