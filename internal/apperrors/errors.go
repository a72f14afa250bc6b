package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrFieldBlank   = errors.New("value is required")
	ErrFieldPattern = errors.New("value has wrong format")

	ErrDuplicate     = errors.New("already exists")
	ErrUsernameTaken = fmt.Errorf("username %w", ErrDuplicate)
	ErrEmailTaken    = fmt.Errorf("email %w", ErrDuplicate)
	ErrNicknameTaken = fmt.Errorf("nickname %w", ErrDuplicate)
	ErrUserExists    = fmt.Errorf("user %w", ErrDuplicate)

	ErrPasswordMismatch     = errors.New("password mismatch")
	ErrWrongPassword        = fmt.Errorf("wrong password: %w", ErrPasswordMismatch)
	ErrConfirmationMismatch = fmt.Errorf("password and confirmation differ: %w", ErrPasswordMismatch)
	ErrSamePassword         = errors.New("new password is the same as the old one")

	ErrNotFound                  = errors.New("not found")
	ErrUserNotFound              = fmt.Errorf("user %w", ErrNotFound)
	ErrResetTokenNotFound        = fmt.Errorf("password reset token %w", ErrNotFound)
	ErrVerificationTokenNotFound = fmt.Errorf("email verification token %w", ErrNotFound)

	ErrInactiveAccount  = errors.New("account is deactivated")
	ErrEmailNotVerified = errors.New("email is not verified")

	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token is expired")
	ErrRevokedToken = errors.New("token is revoked")
)

// Kind of a field validation failure
type ValidationKind string

const (
	KindBlank   ValidationKind = "blank"
	KindPattern ValidationKind = "pattern"
)

// ValidationError describes the first invalid field of an input.
// It matches ErrValidation and, depending on Kind, ErrFieldBlank or ErrFieldPattern.
type ValidationError struct {
	Field string
	Kind  ValidationKind
}

func NewValidationError(field string, kind ValidationKind) *ValidationError {
	return &ValidationError{Field: field, Kind: kind}
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindBlank:
		return fmt.Sprintf("%s: %s", e.Field, ErrFieldBlank)
	default:
		return fmt.Sprintf("%s: %s", e.Field, ErrFieldPattern)
	}
}

func (e *ValidationError) Unwrap() []error {
	switch e.Kind {
	case KindBlank:
		return []error{ErrValidation, ErrFieldBlank}
	default:
		return []error{ErrValidation, ErrFieldPattern}
	}
}
