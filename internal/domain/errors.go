package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrProductUnavailable is returned when a product is not offered for sale.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrAlreadyFulfilled is returned when fulfilling a line that is no longer pending.
	ErrAlreadyFulfilled = errors.New("order line already fulfilled")
)

// ValidationError reports input rejected before reaching storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid returns a *ValidationError with msg.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
