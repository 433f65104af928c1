package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spiralshops/spiral-api/internal/domain/ledger"
	"github.com/spiralshops/spiral-api/internal/domain/loyalty"
	"github.com/spiralshops/spiral-api/internal/domain/promotion"
)

// pointsPerDollar is the redemption rate: 100 SPIRALs buy down $1 of charge.
// Redemption happens in whole blocks of 100 so the debited points always
// equal the cents taken off the order.
const pointsPerDollar = 100

// LedgerTx is the shopper-locked ledger view the orchestrator commits
// through. Both redemption writes happen inside one such transaction.
type LedgerTx interface {
	Balance(ctx context.Context) (int64, error)
	Append(ctx context.Context, delta int64, reason ledger.Reason, orderReference *string) (*ledger.Entry, error)
	EntriesByReference(ctx context.Context, orderReference string) ([]ledger.Entry, error)
}

// LedgerStore serializes per-shopper ledger commits.
type LedgerStore interface {
	InTx(ctx context.Context, shopperID uuid.UUID, fn func(tx LedgerTx) error) error
	InvalidateBalance(ctx context.Context, shopperID uuid.UUID)
}

// PromotionFeed supplies the scope-filtered promotions active at an instant.
type PromotionFeed interface {
	ListActive(ctx context.Context, now time.Time, mallID, retailerID string) ([]promotion.Promotion, error)
}

// Service orchestrates checkout: it resolves the earn multiplier, validates
// the requested redemption, computes the final charge, and posts the debit
// and credit entries atomically.
type Service struct {
	store      LedgerStore
	promos     PromotionFeed
	resolver   *loyalty.Resolver
	calculator *loyalty.Calculator
}

func NewService(store LedgerStore, promos PromotionFeed, resolver *loyalty.Resolver, calculator *loyalty.Calculator) *Service {
	return &Service{store: store, promos: promos, resolver: resolver, calculator: calculator}
}

// Checkout runs the single-pass redemption state machine for one order.
// Retrying with the same order reference is safe: a fully committed order
// replays its stored outcome, and a debit-only state left by an earlier
// partial run gets its missing credit completed exactly once.
func (s *Service) Checkout(ctx context.Context, in Order) (*Receipt, error) {
	if in.ShopperID == uuid.Nil || in.OrderReference == "" ||
		in.SubtotalCents < 0 || in.RequestedRedeemPoints < 0 {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	promos, err := s.promos.ListActive(ctx, now, in.MallID, in.RetailerID)
	if err != nil {
		// A promotion feed outage must not block checkout; the order just
		// earns at the context multiplier alone.
		log.Warn().Err(err).Str("order_reference", in.OrderReference).Msg("promotion feed unavailable, earning without promotions")
		promos = nil
	}

	multiplier := s.resolver.Resolve(loyalty.EarnContext{Pickup: in.Pickup, Invite: in.Invite}, promos)
	subtotalDollars := decimal.New(in.SubtotalCents, -2)
	earned := s.calculator.Earned(subtotalDollars, multiplier)

	maxRedeemableBySubtotal := in.SubtotalCents / pointsPerDollar * pointsPerDollar

	receipt := &Receipt{
		OrderID:       uuid.New(),
		SubtotalCents: in.SubtotalCents,
	}

	err = s.store.InTx(ctx, in.ShopperID, func(tx LedgerTx) error {
		existing, err := tx.EntriesByReference(ctx, in.OrderReference)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return s.recover(ctx, tx, in, earned, existing, receipt)
		}

		balance, err := tx.Balance(ctx)
		if err != nil {
			return err
		}
		if in.RequestedRedeemPoints > balance {
			return ErrInsufficientBalance
		}

		applied := in.RequestedRedeemPoints
		if applied > maxRedeemableBySubtotal {
			applied = maxRedeemableBySubtotal
		}
		applied = applied / pointsPerDollar * pointsPerDollar

		// Debit before credit: a crash between the two under-credits the
		// shopper instead of over-crediting, and the retry path completes
		// the credit.
		if applied > 0 {
			if _, err := tx.Append(ctx, -applied, ledger.ReasonRedeemPurchase, &in.OrderReference); err != nil {
				return err
			}
		}
		if earned > 0 {
			if _, err := tx.Append(ctx, earned, ledger.ReasonEarnPurchase, &in.OrderReference); err != nil {
				return err
			}
		}

		receipt.AppliedRedeem = applied
		receipt.TotalCents = in.SubtotalCents - applied
		receipt.EarnedPoints = earned
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.store.InvalidateBalance(ctx, in.ShopperID)
	log.Info().
		Str("shopper_id", in.ShopperID.String()).
		Str("order_reference", in.OrderReference).
		Int64("subtotal_cents", receipt.SubtotalCents).
		Int64("total_cents", receipt.TotalCents).
		Int64("applied_redeem", receipt.AppliedRedeem).
		Int64("earned_points", receipt.EarnedPoints).
		Bool("replayed", receipt.Replayed).
		Str("multiplier", multiplier.String()).
		Msg("order committed")
	return receipt, nil
}

// recover handles an order reference that already has ledger entries.
// A debit+credit pair (or a lone credit for zero-redeem orders) replays the
// stored outcome. A debit-only state means an earlier run stopped after the
// redemption write; the missing earn credit is appended and the order is
// reported as committed, never re-debited.
func (s *Service) recover(ctx context.Context, tx LedgerTx, in Order, earned int64, existing []ledger.Entry, receipt *Receipt) error {
	var debited, credited int64
	var haveDebit, haveCredit bool
	for _, e := range existing {
		switch e.Reason {
		case ledger.ReasonRedeemPurchase:
			debited = -e.DeltaPoints
			haveDebit = true
		case ledger.ReasonEarnPurchase:
			credited = e.DeltaPoints
			haveCredit = true
		}
	}

	if haveDebit && !haveCredit && earned > 0 {
		if _, err := tx.Append(ctx, earned, ledger.ReasonEarnPurchase, &in.OrderReference); err != nil {
			return err
		}
		credited = earned
		log.Warn().
			Str("shopper_id", in.ShopperID.String()).
			Str("order_reference", in.OrderReference).
			Int64("credited", credited).
			Msg("completed missing earn credit for partially committed order")
	}

	receipt.AppliedRedeem = debited
	receipt.TotalCents = in.SubtotalCents - debited
	receipt.EarnedPoints = credited
	receipt.Replayed = true
	return nil
}
