package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyTaken is returned when any number in a batch is sold or
	// actively reserved by another flow. The whole batch is rejected.
	ErrAlreadyTaken = errors.New("number is already sold or reserved")

	// ErrInsufficientAvailability is returned when a random batch request
	// asks for more numbers than are free on the requested page.
	ErrInsufficientAvailability = errors.New("not enough available numbers on this page")

	// ErrLimitExceeded is returned when a purchase would exceed the
	// per-phone entry cap or the per-transaction cap.
	ErrLimitExceeded = errors.New("ticket limit exceeded")

	// ErrNoSoldNumbers is returned when a draw is attempted with nothing sold.
	ErrNoSoldNumbers = errors.New("no sold numbers to draw from")

	ErrSessionNotFound    = errors.New("purchase session not found")
	ErrSessionNotActive   = errors.New("purchase session is not awaiting identification")
	ErrReservationExpired = errors.New("reservation expired")
)

// ValidationError is a field-level input error that blocks submission
// until corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a field-level validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
