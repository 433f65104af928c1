package promotion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository handles promotion database operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new promotion repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new promotion
func (r *Repository) Create(ctx context.Context, p *Promotion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promotions (
			id, kind, name, multiplier, scope, scope_id,
			starts_at, ends_at, active, status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		p.ID,
		p.Kind,
		p.Name,
		p.Multiplier,
		p.Scope,
		p.ScopeID,
		p.StartsAt,
		p.EndsAt,
		p.Active,
		p.Status,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByID returns a promotion by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	var p Promotion
	err := r.db.GetContext(ctx, &p, `
		SELECT id, kind, name, multiplier, scope, scope_id,
			starts_at, ends_at, active, status, created_by, created_at, updated_at
		FROM promotions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns promotions ordered by creation time, newest first
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Promotion, error) {
	promos := []Promotion{}
	err := r.db.SelectContext(ctx, &promos, `
		SELECT id, kind, name, multiplier, scope, scope_id,
			starts_at, ends_at, active, status, created_by, created_at, updated_at
		FROM promotions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return promos, err
}

// ListActive returns promotions whose window covers now, that are approved
// and toggled active, and whose scope matches the given mall/retailer.
// Ordered by id so multiplier application is deterministic.
func (r *Repository) ListActive(ctx context.Context, now time.Time, mallID, retailerID string) ([]Promotion, error) {
	promos := []Promotion{}
	err := r.db.SelectContext(ctx, &promos, `
		SELECT id, kind, name, multiplier, scope, scope_id,
			starts_at, ends_at, active, status, created_by, created_at, updated_at
		FROM promotions
		WHERE active = TRUE
		  AND status = 'approved'
		  AND starts_at <= $1 AND $1 < ends_at
		  AND (
			scope = 'global'
			OR (scope = 'mall' AND scope_id = $2)
			OR (scope = 'retailer' AND scope_id = $3)
		  )
		ORDER BY id
	`, now, mallID, retailerID)
	return promos, err
}

// UpdateStatus moves a promotion between lifecycle states
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE promotions SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// SetActive toggles a promotion on or off
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE promotions SET active = $1, updated_at = now() WHERE id = $2
	`, active, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
