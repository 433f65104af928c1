package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Reason tags every ledger entry with why the balance changed.
type Reason string

const (
	ReasonEarnPurchase   Reason = "earn_purchase"
	ReasonRedeemPurchase Reason = "redeem_purchase"
	ReasonInviteBonus    Reason = "invite_bonus"
	ReasonSignupBonus    Reason = "signup_bonus"
	ReasonAdminAdjust    Reason = "admin_adjust"
)

// Entry is one immutable, signed SPIRALS delta. Entries are never updated
// or deleted; corrections are posted as compensating entries. The append
// sequence (ID) is the authoritative ordering, CreatedAt is informational.
type Entry struct {
	ID             int64     `db:"id" json:"id"`
	ShopperID      uuid.UUID `db:"shopper_id" json:"shopper_id"`
	DeltaPoints    int64     `db:"delta_points" json:"delta_points"`
	Reason         Reason    `db:"reason" json:"reason"`
	OrderReference *string   `db:"order_reference" json:"order_reference,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Tier names follow the storefront loyalty dashboard.
const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
)

// Dashboard summarizes a shopper's standing in the loyalty program.
type Dashboard struct {
	ShopperID          uuid.UUID `json:"shopper_id"`
	Balance            int64     `json:"balance"`
	TotalEarned        int64     `json:"total_earned"`
	Tier               string    `json:"tier"`
	NextTierPoints     int64     `json:"next_tier_points"`
	ProgressToNextTier float64   `json:"progress_to_next_tier"`
	ReferralCode       string    `json:"referral_code,omitempty"`
}
