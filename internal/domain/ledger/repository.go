package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository is the append-only SPIRALS ledger. It records signed deltas
// and derives balances by summation; it never judges whether a delta is
// allowed. Overdraft policy lives in the order orchestrator.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureAccount creates the shopper's account row if missing. The row holds
// no trusted balance; it exists as the per-shopper lock target.
func (r *Repository) EnsureAccount(ctx context.Context, shopperID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO spiral_accounts (shopper_id)
		VALUES ($1)
		ON CONFLICT (shopper_id) DO NOTHING
	`, shopperID)
	return err
}

// Append records a single signed delta. It always succeeds while storage is
// available, even if the resulting balance would be negative.
func (r *Repository) Append(ctx context.Context, shopperID uuid.UUID, delta int64, reason Reason, orderReference *string) (*Entry, error) {
	if delta == 0 {
		return nil, ErrZeroDelta
	}
	if err := r.EnsureAccount(ctx, shopperID); err != nil {
		return nil, err
	}
	return insertEntry(ctx, r.db, shopperID, delta, reason, orderReference)
}

// Balance returns the sum of all deltas for the shopper. An unknown shopper
// has a zero balance, not an error.
func (r *Repository) Balance(ctx context.Context, shopperID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(delta_points), 0)
		FROM spiral_ledger
		WHERE shopper_id = $1
	`, shopperID)
	return balance, err
}

// TotalEarned returns the sum of all positive deltas for the shopper.
func (r *Repository) TotalEarned(ctx context.Context, shopperID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(delta_points), 0)
		FROM spiral_ledger
		WHERE shopper_id = $1 AND delta_points > 0
	`, shopperID)
	return total, err
}

// History returns up to limit entries for the shopper, most recent first.
func (r *Repository) History(ctx context.Context, shopperID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	entries := []Entry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, shopper_id, delta_points, reason, order_reference, created_at
		FROM spiral_ledger
		WHERE shopper_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, shopperID, limit)
	return entries, err
}

// Tx is a ledger view scoped to one shopper whose account row is locked for
// the duration of the transaction. All concurrent redemption hazards are
// serialized through this lock.
type Tx struct {
	tx        *sqlx.Tx
	shopperID uuid.UUID
}

// InTx runs fn with the shopper's account row locked. The transaction
// commits iff fn returns nil, so a multi-entry commit (debit then credit)
// is atomic from the caller's perspective.
func (r *Repository) InTx(ctx context.Context, shopperID uuid.UUID, fn func(tx *Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO spiral_accounts (shopper_id)
		VALUES ($1)
		ON CONFLICT (shopper_id) DO NOTHING
	`, shopperID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		SELECT shopper_id FROM spiral_accounts WHERE shopper_id = $1 FOR UPDATE
	`, shopperID); err != nil {
		return err
	}

	if err := fn(&Tx{tx: tx, shopperID: shopperID}); err != nil {
		return err
	}
	return tx.Commit()
}

// Balance returns the locked shopper's derived balance.
func (t *Tx) Balance(ctx context.Context) (int64, error) {
	var balance int64
	err := t.tx.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(delta_points), 0)
		FROM spiral_ledger
		WHERE shopper_id = $1
	`, t.shopperID)
	return balance, err
}

// Append records a delta inside the transaction.
func (t *Tx) Append(ctx context.Context, delta int64, reason Reason, orderReference *string) (*Entry, error) {
	if delta == 0 {
		return nil, ErrZeroDelta
	}
	return insertEntry(ctx, t.tx, t.shopperID, delta, reason, orderReference)
}

// EntriesByReference returns the locked shopper's entries carrying the given
// order reference, oldest first. Used for idempotent checkout retries.
func (t *Tx) EntriesByReference(ctx context.Context, orderReference string) ([]Entry, error) {
	entries := []Entry{}
	err := t.tx.SelectContext(ctx, &entries, `
		SELECT id, shopper_id, delta_points, reason, order_reference, created_at
		FROM spiral_ledger
		WHERE shopper_id = $1 AND order_reference = $2
		ORDER BY id
	`, t.shopperID, orderReference)
	return entries, err
}

// HasEntry reports whether an entry with the given reason and reference
// already exists for the locked shopper.
func (t *Tx) HasEntry(ctx context.Context, reason Reason, orderReference string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM spiral_ledger
			WHERE shopper_id = $1 AND reason = $2 AND order_reference = $3
		)
	`, t.shopperID, reason, orderReference)
	return exists, err
}

type execer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

func insertEntry(ctx context.Context, q execer, shopperID uuid.UUID, delta int64, reason Reason, orderReference *string) (*Entry, error) {
	e := Entry{
		ShopperID:      shopperID,
		DeltaPoints:    delta,
		Reason:         reason,
		OrderReference: orderReference,
	}
	err := q.QueryRowxContext(ctx, `
		INSERT INTO spiral_ledger (shopper_id, delta_points, reason, order_reference)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, shopperID, delta, string(reason), orderReference).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
