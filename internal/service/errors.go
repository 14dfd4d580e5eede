package service

import "errors"

// Client-facing error taxonomy. Handlers match these with errors.Is; anything
// else is a persistence or infrastructure failure and surfaces as a 500.
var (
	ErrInvalidRequest    = errors.New("amount and payment method are required")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrNotFound          = errors.New("payment not found")
	ErrForbidden         = errors.New("not authorized to view this payment")
	ErrConflict          = errors.New("payment is already finalized")
)
