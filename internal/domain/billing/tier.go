package billing

// DiscountTier is a retailer-facing platform-fee discount band keyed by
// trailing annual sales volume. Unrelated to shopper loyalty points.
type DiscountTier struct {
	Tier        int    `json:"tier"`
	DiscountBps int    `json:"discount_bps"`
	Notes       string `json:"notes"`
}

// Volume bands in whole USD. Lower bounds are inclusive, so a retailer
// sitting exactly on a boundary lands in the higher tier. The top band is
// open-ended, which makes the mapping total over non-negative volumes.
const (
	tier2VolumeUsd = 50_000_000
	tier3VolumeUsd = 500_000_000
)

// ResolveTier maps a retailer's trailing annual volume to its negotiated
// fee-discount tier. Pure and never fails.
func ResolveTier(annualVolumeUsd float64) DiscountTier {
	switch {
	case annualVolumeUsd >= tier3VolumeUsd:
		return DiscountTier{Tier: 3, DiscountBps: 30, Notes: "top-volume partner pricing"}
	case annualVolumeUsd >= tier2VolumeUsd:
		return DiscountTier{Tier: 2, DiscountBps: 15, Notes: "mid-volume partner pricing"}
	default:
		return DiscountTier{Tier: 1, DiscountBps: 0, Notes: "standard platform fee"}
	}
}
