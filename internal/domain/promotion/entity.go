package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind represents the origin of a promotion
type Kind string

const (
	KindSeasonal     Kind = "seasonal"
	KindAdmin        Kind = "admin"
	KindTieredVolume Kind = "tiered_volume"
)

// Scope limits which orders a promotion applies to
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeMall     Scope = "mall"
	ScopeRetailer Scope = "retailer"
)

// Status represents promotion lifecycle status
type Status string

const (
	// StatusPending means the promotion was created by an admin and is
	// waiting for approval. Pending promotions never apply to orders.
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Promotion is a time-boxed earn multiplier stacked on top of the base rate.
type Promotion struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Kind       Kind            `db:"kind" json:"kind"`
	Name       string          `db:"name" json:"name"`
	Multiplier decimal.Decimal `db:"multiplier" json:"multiplier"`
	Scope      Scope           `db:"scope" json:"scope"`
	ScopeID    *string         `db:"scope_id" json:"scope_id,omitempty"`
	StartsAt   time.Time       `db:"starts_at" json:"starts_at"`
	EndsAt     time.Time       `db:"ends_at" json:"ends_at"`
	Active     bool            `db:"active" json:"active"`
	Status     Status          `db:"status" json:"status"`
	CreatedBy  *uuid.UUID      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the promotion applies at the given instant.
// The window is half-open: starts_at <= now < ends_at.
func (p *Promotion) ActiveAt(now time.Time) bool {
	if !p.Active || p.Status != StatusApproved {
		return false
	}
	return !now.Before(p.StartsAt) && now.Before(p.EndsAt)
}

// Matches reports whether the promotion's scope covers an order placed
// at the given mall/retailer. Global promotions match everything.
func (p *Promotion) Matches(mallID, retailerID string) bool {
	switch p.Scope {
	case ScopeGlobal:
		return true
	case ScopeMall:
		return p.ScopeID != nil && *p.ScopeID == mallID
	case ScopeRetailer:
		return p.ScopeID != nil && *p.ScopeID == retailerID
	default:
		return false
	}
}
