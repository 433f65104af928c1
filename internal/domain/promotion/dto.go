package promotion

import (
	"time"
)

// CreateRequest is the admin payload for creating a promotion.
type CreateRequest struct {
	Kind       string    `json:"kind" validate:"required,promo_kind"`
	Name       string    `json:"name" validate:"required,max=120"`
	Multiplier string    `json:"multiplier" validate:"required"`
	Scope      string    `json:"scope" validate:"required,promo_scope"`
	ScopeID    *string   `json:"scope_id"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
}
