package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lumi/internal/common"
	"lumi/internal/models"
	"lumi/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordHashCost  = 12
	minPasswordLength = 8
)

var (
	ErrTokenRequired    = errors.New("registration link is missing")
	ErrInviteInvalid    = errors.New("this invite link is not valid")
	ErrInviteUsed       = errors.New("this invite has already been used")
	ErrInviteExpired    = errors.New("this invite has expired, ask your trainer to send a new one")
	ErrAccountExists    = errors.New("an account already exists for this email")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

type RegisterClientParams struct {
	Token           string
	Name            string
	Password        string
	ConfirmPassword string
	Phone           string
	Address         string
}

type AccountService interface {
	ResolveInvite(ctx context.Context, token string) (*models.InviteForRegistration, error)
	RegisterClient(ctx context.Context, params RegisterClientParams) (*models.UserWithProfile, error)
}

type accountService struct {
	userRepo   repositories.UserRepository
	inviteRepo repositories.InviteRepository
}

func NewAccountService(userRepo repositories.UserRepository, inviteRepo repositories.InviteRepository) AccountService {
	return &accountService{userRepo: userRepo, inviteRepo: inviteRepo}
}

// ResolveInvite checks whether the token still admits registration. Used,
// removed and expired invites each fail with their own error so the
// registration page can explain what happened.
func (s *accountService) ResolveInvite(ctx context.Context, token string) (*models.InviteForRegistration, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}

	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}
	if invite == nil {
		return nil, ErrInviteInvalid
	}

	switch invite.Status {
	case models.InviteStatusPending:
	case models.InviteStatusAccepted:
		return nil, ErrInviteUsed
	default:
		return nil, ErrInviteInvalid
	}

	if invite.ExpiresAt != nil && invite.ExpiresAt.Before(time.Now()) {
		return nil, ErrInviteExpired
	}

	existing, err := s.userRepo.GetWithProfileByEmail(ctx, invite.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil && existing.User.PasswordHash != nil {
		return nil, ErrAccountExists
	}

	return invite, nil
}

// RegisterClient provisions the client account for a pending invite. User,
// profile and invite acceptance commit in one transaction; a passwordless
// user row left behind by an OAuth sign-in is claimed rather than duplicated.
func (s *accountService) RegisterClient(ctx context.Context, params RegisterClientParams) (*models.UserWithProfile, error) {
	if err := validatePassword(params.Password, params.ConfirmPassword); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(params.Phone)
	address := strings.TrimSpace(params.Address)
	if phone == "" || address == "" {
		return nil, ErrContactInfoRequired
	}

	invite, err := s.ResolveInvite(ctx, params.Token)
	if err != nil {
		return nil, err
	}

	var existingUserID *uuid.UUID
	existing, err := s.userRepo.GetWithProfileByEmail(ctx, invite.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		id := existing.User.ID
		existingUserID = &id
	}

	name := common.OptionalString(params.Name)
	if name == nil {
		name = invite.Name
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.CreateClientAccount(ctx, repositories.CreateClientAccountParams{
		Email:          invite.Email,
		Name:           name,
		PasswordHash:   string(hash),
		TrainerID:      invite.TrainerID,
		InviteID:       invite.ID,
		Phone:          phone,
		Address:        address,
		ExistingUserID: existingUserID,
	})
}

func validatePassword(password, confirm string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
