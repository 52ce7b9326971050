package services

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned for any authentication failure.
// It deliberately does not distinguish an unknown username from a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError marks malformed client input. Handlers surface the
// reason as a bad-request response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidInput(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
