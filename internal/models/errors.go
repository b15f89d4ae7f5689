package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("short code allocation exhausted")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrAccountInactive    = errors.New("account not active")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrVersionConflict    = errors.New("optimistic lock failed")
	ErrAlreadyProcessed   = errors.New("already processed")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTransient reports whether the caller may safely retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrVersionConflict)
}
