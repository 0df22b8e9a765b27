package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use, short-lived credential allowing a
// password replacement. UsedAt is set at most once and never cleared.
type PasswordResetToken struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Token     string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}

// TokenResponse is returned on successful sign-in.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
}
