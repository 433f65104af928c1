package shopper

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository handles shopper database operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new shopper repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new shopper
func (r *Repository) Create(ctx context.Context, s *Shopper) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shoppers (id, email, password_hash, role, referral_code, invited_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.Email, s.PasswordHash, s.Role, s.ReferralCode, s.InvitedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByID returns a shopper by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Shopper, error) {
	var s Shopper
	err := r.db.GetContext(ctx, &s, `
		SELECT id, email, password_hash, role, referral_code, invited_by, created_at, updated_at
		FROM shoppers
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByEmail returns a shopper by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Shopper, error) {
	var s Shopper
	err := r.db.GetContext(ctx, &s, `
		SELECT id, email, password_hash, role, referral_code, invited_by, created_at, updated_at
		FROM shoppers
		WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByReferralCode returns the shopper owning a referral code
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*Shopper, error) {
	var s Shopper
	err := r.db.GetContext(ctx, &s, `
		SELECT id, email, password_hash, role, referral_code, invited_by, created_at, updated_at
		FROM shoppers
		WHERE referral_code = $1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ReferralCode returns just the referral code for a shopper
func (r *Repository) ReferralCode(ctx context.Context, shopperID uuid.UUID) (string, error) {
	var code string
	err := r.db.GetContext(ctx, &code, `
		SELECT referral_code FROM shoppers WHERE id = $1
	`, shopperID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return code, err
}
