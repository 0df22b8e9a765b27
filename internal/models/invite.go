package models

import (
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRemoved  InviteStatus = "removed"
)

// ClientInvite grants one email address access as a trainer's client. The
// token is the sole registration credential and is never serialized.
type ClientInvite struct {
	ID         uuid.UUID    `json:"id"`
	TrainerID  uuid.UUID    `json:"trainer_id"`
	Email      string       `json:"email"`
	Name       *string      `json:"name"`
	Token      string       `json:"-"`
	Status     InviteStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  *time.Time   `json:"expires_at"`
	AcceptedAt *time.Time   `json:"accepted_at"`
	UserID     *uuid.UUID   `json:"user_id"`
}

// InviteForRegistration is the joined view behind a registration link.
type InviteForRegistration struct {
	ID          uuid.UUID    `json:"id"`
	TrainerID   uuid.UUID    `json:"trainer_id"`
	TrainerName *string      `json:"trainer_name"`
	Email       string       `json:"email"`
	Name        *string      `json:"name"`
	Status      InviteStatus `json:"status"`
	ExpiresAt   *time.Time   `json:"expires_at"`
}

// TrainerClient is one row of a trainer's client list. Status is derived:
// "active" once the invite is accepted, "pending" before that.
type TrainerClient struct {
	InviteID  uuid.UUID  `json:"invite_id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	Phone     *string    `json:"phone"`
	Address   *string    `json:"address"`
	Status    string     `json:"status"`
	InvitedAt time.Time  `json:"invited_at"`
	UserID    *uuid.UUID `json:"user_id"`
}
