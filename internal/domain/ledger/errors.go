package ledger

import "errors"

var (
	ErrZeroDelta     = errors.New("delta must be non-zero")
	ErrInvalidReason = errors.New("unknown reason code")
	ErrInvalidLimit  = errors.New("limit must be positive")
)
