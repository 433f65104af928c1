package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Tier thresholds over lifetime earned points.
const (
	silverThreshold   = 1000
	goldThreshold     = 2500
	platinumThreshold = 5000
)

type Service struct {
	repo  *Repository
	cache *BalanceCache
}

func NewService(repo *Repository, cache *BalanceCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Balance returns the shopper's current SPIRALS balance, read through the
// cache when possible.
func (s *Service) Balance(ctx context.Context, shopperID uuid.UUID) (int64, error) {
	if balance, ok := s.cache.Get(ctx, shopperID); ok {
		return balance, nil
	}
	balance, err := s.repo.Balance(ctx, shopperID)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, shopperID, balance)
	return balance, nil
}

// History returns the shopper's most recent entries, newest first.
func (s *Service) History(ctx context.Context, shopperID uuid.UUID, limit int) ([]Entry, error) {
	return s.repo.History(ctx, shopperID, limit)
}

// Append posts one signed delta and drops the cached balance. Used by the
// order orchestrator for non-transactional writes and by admin adjustments.
func (s *Service) Append(ctx context.Context, shopperID uuid.UUID, delta int64, reason Reason, orderReference *string) (*Entry, error) {
	entry, err := s.repo.Append(ctx, shopperID, delta, reason, orderReference)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, shopperID)
	log.Info().
		Str("shopper_id", shopperID.String()).
		Int64("delta", delta).
		Str("reason", string(reason)).
		Msg("ledger entry appended")
	return entry, nil
}

// GrantBonus credits points once per (reason, reference) pair. A replay with
// the same reference is a no-op, so signup and invite bonuses can be retried
// safely.
func (s *Service) GrantBonus(ctx context.Context, shopperID uuid.UUID, points int64, reason Reason, reference string) error {
	if points <= 0 {
		return ErrZeroDelta
	}
	granted := false
	err := s.repo.InTx(ctx, shopperID, func(tx *Tx) error {
		exists, err := tx.HasEntry(ctx, reason, reference)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := tx.Append(ctx, points, reason, &reference); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return err
	}
	if granted {
		s.cache.Invalidate(ctx, shopperID)
		log.Info().
			Str("shopper_id", shopperID.String()).
			Int64("points", points).
			Str("reason", string(reason)).
			Str("reference", reference).
			Msg("bonus granted")
	}
	return nil
}

// Dashboard derives the shopper's loyalty standing from the ledger.
func (s *Service) Dashboard(ctx context.Context, shopperID uuid.UUID) (*Dashboard, error) {
	balance, err := s.Balance(ctx, shopperID)
	if err != nil {
		return nil, err
	}
	totalEarned, err := s.repo.TotalEarned(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	tier, next, progress := TierFor(totalEarned)
	return &Dashboard{
		ShopperID:          shopperID,
		Balance:            balance,
		TotalEarned:        totalEarned,
		Tier:               tier,
		NextTierPoints:     next,
		ProgressToNextTier: progress,
	}, nil
}

// TierFor maps lifetime earned points to a tier, the next tier's threshold,
// and the percentage progress toward it. Platinum is the ceiling.
func TierFor(totalEarned int64) (tier string, nextTierPoints int64, progress float64) {
	switch {
	case totalEarned >= platinumThreshold:
		return TierPlatinum, platinumThreshold, 100
	case totalEarned >= goldThreshold:
		return TierGold, platinumThreshold, pct(totalEarned, goldThreshold, platinumThreshold)
	case totalEarned >= silverThreshold:
		return TierSilver, goldThreshold, pct(totalEarned, silverThreshold, goldThreshold)
	default:
		return TierBronze, silverThreshold, pct(totalEarned, 0, silverThreshold)
	}
}

func pct(earned, lower, upper int64) float64 {
	p := float64(earned-lower) / float64(upper-lower) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
