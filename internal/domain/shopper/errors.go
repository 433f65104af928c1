package shopper

import "errors"

var (
	ErrNotFound           = errors.New("shopper not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInviteCode  = errors.New("unknown invite code")
)
