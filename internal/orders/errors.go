package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrConflict           = errors.New("order changed concurrently")
	ErrValidation         = errors.New("validation error")
)

// TransitionError carries the status an action was rejected from.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Kind names the error class for API responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	}
	return "internal"
}
