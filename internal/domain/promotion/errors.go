package promotion

import "errors"

var (
	ErrNotFound          = errors.New("promotion not found")
	ErrInvalidMultiplier = errors.New("multiplier must be at least 1")
	ErrInvalidWindow     = errors.New("ends_at must be after starts_at")
	ErrNotPending        = errors.New("promotion is not pending approval")
	ErrNotApproved       = errors.New("promotion is not approved")
	ErrScopeIDRequired   = errors.New("scope_id is required for mall and retailer scope")
)
