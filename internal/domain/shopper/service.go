package shopper

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spiralshops/spiral-api/internal/domain/ledger"
	"github.com/spiralshops/spiral-api/internal/pkg/jwt"
	"github.com/spiralshops/spiral-api/internal/pkg/password"
)

// BonusGranter posts idempotent bonus credits to the SPIRALS ledger.
type BonusGranter interface {
	GrantBonus(ctx context.Context, shopperID uuid.UUID, points int64, reason ledger.Reason, reference string) error
}

// Bonuses configures the one-time point grants handed out by the registry.
type Bonuses struct {
	SignupPoints int64
	InvitePoints int64
}

type Service struct {
	repo    *Repository
	jwt     *jwt.Service
	bonuses Bonuses
	granter BonusGranter
}

func NewService(repo *Repository, jwtService *jwt.Service, granter BonusGranter, bonuses Bonuses) *Service {
	return &Service{repo: repo, jwt: jwtService, bonuses: bonuses, granter: granter}
}

// Signup registers a shopper, issues tokens, and posts the signup bonus.
// If inviteCode names an existing shopper's referral code, the inviter is
// credited a flat invite bonus, once per invited account.
func (s *Service) Signup(ctx context.Context, email, plainPassword, inviteCode string) (*Shopper, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var invitedBy *uuid.UUID
	if inviteCode != "" {
		inviter, err := s.repo.GetByReferralCode(ctx, inviteCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, nil, ErrInvalidInviteCode
			}
			return nil, nil, err
		}
		invitedBy = &inviter.ID
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	sh := &Shopper{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleShopper,
		ReferralCode: newReferralCode(),
		InvitedBy:    invitedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, nil, err
	}

	// Bonus grants are idempotent by reference, so a crash after Create
	// can be healed by re-running them; failures never fail the signup.
	if s.bonuses.SignupPoints > 0 {
		if err := s.granter.GrantBonus(ctx, sh.ID, s.bonuses.SignupPoints, ledger.ReasonSignupBonus, "signup:"+sh.ID.String()); err != nil {
			log.Error().Err(err).Str("shopper_id", sh.ID.String()).Msg("signup bonus grant failed")
		}
	}
	if invitedBy != nil && s.bonuses.InvitePoints > 0 {
		if err := s.granter.GrantBonus(ctx, *invitedBy, s.bonuses.InvitePoints, ledger.ReasonInviteBonus, "invite:"+sh.ID.String()); err != nil {
			log.Error().Err(err).Str("inviter_id", invitedBy.String()).Msg("invite bonus grant failed")
		}
	}

	tokens, err := s.issueTokens(sh)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("shopper_id", sh.ID.String()).Bool("invited", invitedBy != nil).Msg("shopper registered")
	return sh, tokens, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*Shopper, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	sh, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !password.Verify(plainPassword, sh.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(sh)
	if err != nil {
		return nil, nil, err
	}
	return sh, tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	sh, err := s.repo.GetByID(ctx, claims.ShopperID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(sh)
}

func (s *Service) issueTokens(sh *Shopper) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(sh.ID, sh.Role)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.jwt.GenerateRefreshToken(sh.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// newReferralCode mints codes like SPIRAL-3F9C01AB.
func newReferralCode() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "SPIRAL-" + strings.ToUpper(uuid.New().String()[:8])
	}
	return "SPIRAL-" + strings.ToUpper(hex.EncodeToString(buf))
}
