package models

import "errors"

var (
	// ErrInvalidContract is returned by the constructors for economically
	// meaningless parameters or inconsistent schedules.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrWrongKind is returned when an operation does not apply to the option's kind.
	ErrWrongKind = errors.New("operation not supported for option kind")
)
