package authflow

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol marks a response whose shape the flow cannot act on,
	// e.g. an MFA success that carries no access token. The step must be
	// restarted by the user; the flow never retries on its own.
	ErrProtocol = errors.New("unexpected response shape")

	// ErrInvalidState is returned when an operation is attempted in a
	// state that does not allow it.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// ValidationError reports a local policy violation detected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
