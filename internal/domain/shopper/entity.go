package shopper

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleShopper = "shopper"
	RoleAdmin   = "admin"
)

// Shopper is a registered account in the shopper registry.
type Shopper struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	ReferralCode string     `db:"referral_code" json:"referral_code"`
	InvitedBy    *uuid.UUID `db:"invited_by" json:"invited_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// TokenPair carries the issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
