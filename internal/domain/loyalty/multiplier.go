package loyalty

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spiralshops/spiral-api/internal/domain/promotion"
)

var one = decimal.NewFromInt(1)

// EarnContext carries the per-order flags that influence the earn multiplier.
type EarnContext struct {
	Pickup bool
	Invite bool
}

// Resolver combines order context and active promotions into the effective
// SPIRALS earn multiplier. Factors stack multiplicatively: pickup x2 plus a
// seasonal 2x promotion yields 4x, never 3x.
type Resolver struct {
	pickupMultiplier decimal.Decimal
	inviteMultiplier decimal.Decimal
}

// NewResolver creates a resolver with the configured pickup and invite factors.
func NewResolver(pickupMultiplier, inviteMultiplier int64) *Resolver {
	return &Resolver{
		pickupMultiplier: decimal.NewFromInt(pickupMultiplier),
		inviteMultiplier: decimal.NewFromInt(inviteMultiplier),
	}
}

// Resolve returns the effective multiplier for an order. The promotion list
// must already be scope-filtered and active; promotions with a multiplier
// below 1 are treated as not active and skipped. Promotions are applied in
// ascending id order so the composition is deterministic.
func (r *Resolver) Resolve(ctx EarnContext, promos []promotion.Promotion) decimal.Decimal {
	m := one
	if ctx.Pickup {
		m = m.Mul(r.pickupMultiplier)
	}
	if ctx.Invite {
		m = m.Mul(r.inviteMultiplier)
	}

	if len(promos) == 0 {
		return m
	}

	sorted := make([]promotion.Promotion, len(promos))
	copy(sorted, promos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	for _, p := range sorted {
		if p.Multiplier.LessThan(one) {
			continue
		}
		m = m.Mul(p.Multiplier)
	}
	return m
}
