package appointments

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRescheduleConflict: el slot destino se llenó entre el chequeo y el
	// commit. Se reporta al caller, nunca se reintenta en silencio.
	ErrRescheduleConflict = errors.New("destination slot became full")
)
