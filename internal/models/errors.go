package models

import "errors"

var (
	// ErrDataUnavailable indicates the schedule store could not provide a usable network
	ErrDataUnavailable = errors.New("schedule data unavailable")

	// ErrNotFound indicates a stop, line or itinerary ID is unknown
	ErrNotFound = errors.New("not found")

	// ErrInvalidCoordinates indicates latitude/longitude failed range validation
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
