package order

import "errors"

var (
	// ErrInsufficientBalance rejects the whole order when the shopper asks
	// for more points than the ledger holds. The request is never silently
	// clamped against balance: a too-large ask means a stale client or a
	// race and must surface.
	ErrInsufficientBalance = errors.New("requested redemption exceeds available balance")

	// ErrInvalidInput rejects malformed orders before any side effect.
	ErrInvalidInput = errors.New("invalid order input")
)
