package service

import "errors"

var (
	// ErrValidation: bad input shape or range.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound: referenced entity absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: caller may not act on the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState: illegal lifecycle transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientFunds: balance precondition failed.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConsistencyFault: total != invested + available. Never user-caused; must alert.
	ErrConsistencyFault = errors.New("balance consistency fault")
)
