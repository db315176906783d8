package apilimit

import "errors"

// Domain errors for the access gate.
var (
	ErrLimitReached  = errors.New("free trial limit reached")
	ErrInvalidUserID = errors.New("invalid user id")
)
