package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleTrainer UserRole = "trainer"
	RoleClient  UserRole = "client"
)

// User is the identity record. PasswordHash is nil for OAuth-only accounts
// that never set a password.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         *string   `json:"name"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the role + relationship record attached to a user. Role is
// immutable after assignment; InvitedBy is set for clients only.
type UserProfile struct {
	UserID    uuid.UUID  `json:"user_id"`
	Role      UserRole   `json:"role"`
	InvitedBy *uuid.UUID `json:"invited_by"`
	Phone     *string    `json:"phone"`
	Address   *string    `json:"address"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserWithProfile is the joined view used by lookups. Profile is nil for
// users that have not completed onboarding yet.
type UserWithProfile struct {
	User    User         `json:"user"`
	Profile *UserProfile `json:"profile"`
}
