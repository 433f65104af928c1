package order

import (
	"github.com/google/uuid"
)

// Order is the checkout input consumed exactly once per order reference.
type Order struct {
	ShopperID             uuid.UUID
	SubtotalCents         int64
	RequestedRedeemPoints int64
	Pickup                bool
	Invite                bool
	MallID                string
	RetailerID            string
	OrderReference        string
}

// Receipt is the orchestration outcome returned to the checkout flow.
type Receipt struct {
	OrderID       uuid.UUID `json:"order_id"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TotalCents    int64     `json:"total_cents"`
	EarnedPoints  int64     `json:"earned_points"`
	AppliedRedeem int64     `json:"applied_redeem"`

	// Replayed is set when the order reference had already been committed
	// and the stored outcome was returned without new ledger writes.
	Replayed bool `json:"replayed,omitempty"`
}
