package promotion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// CreateInput carries the fields needed to create a promotion.
type CreateInput struct {
	Kind       Kind
	Name       string
	Multiplier decimal.Decimal
	Scope      Scope
	ScopeID    *string
	StartsAt   time.Time
	EndsAt     time.Time
	CreatedBy  *uuid.UUID
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new promotion. Admin-created promotions
// start pending and must be approved before they apply to orders; seasonal
// and tiered-volume promotions skip approval and are toggled directly.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Promotion, error) {
	if in.Multiplier.LessThan(one) {
		return nil, ErrInvalidMultiplier
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, ErrInvalidWindow
	}
	if (in.Scope == ScopeMall || in.Scope == ScopeRetailer) && (in.ScopeID == nil || *in.ScopeID == "") {
		return nil, ErrScopeIDRequired
	}

	status := StatusApproved
	active := true
	if in.Kind == KindAdmin {
		status = StatusPending
		active = false
	}

	now := time.Now().UTC()
	p := &Promotion{
		ID:         uuid.New(),
		Kind:       in.Kind,
		Name:       in.Name,
		Multiplier: in.Multiplier,
		Scope:      in.Scope,
		ScopeID:    in.ScopeID,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		Active:     active,
		Status:     status,
		CreatedBy:  in.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("promotion_id", p.ID.String()).
		Str("kind", string(p.Kind)).
		Str("multiplier", p.Multiplier.String()).
		Str("scope", string(p.Scope)).
		Msg("promotion created")
	return p, nil
}

// Approve moves a pending admin promotion to approved and switches it on.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusPending {
		return ErrNotPending
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusApproved); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	log.Info().Str("promotion_id", id.String()).Msg("promotion approved")
	return nil
}

// SetActive toggles an approved promotion on or off.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusApproved {
		return ErrNotApproved
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	log.Info().Str("promotion_id", id.String()).Bool("active", active).Msg("promotion toggled")
	return nil
}

// List returns promotions for the admin dashboard.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Promotion, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListActive returns the scope-filtered promotions applying right now.
// This is the feed consumed by the order flow; it is loaded per request,
// there is no process-wide promotion state.
func (s *Service) ListActive(ctx context.Context, now time.Time, mallID, retailerID string) ([]Promotion, error) {
	return s.repo.ListActive(ctx, now, mallID, retailerID)
}
