package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lumi/internal/common"
	"lumi/internal/models"
	"lumi/internal/repositories"

	"github.com/google/uuid"
)

// inviteTTL bounds how long a registration link stays usable.
const inviteTTL = 7 * 24 * time.Hour

var (
	ErrEmailRequired       = errors.New("client email is required")
	ErrInviteExists        = errors.New("an invite for this client is already active")
	ErrClientOwned         = errors.New("that client already works with another trainer")
	ErrClientNotFound      = errors.New("client not found")
	ErrContactInfoRequired = errors.New("phone number and address are required")
)

type InviteService interface {
	CreateInvite(ctx context.Context, trainerID uuid.UUID, email, name string) (*models.ClientInvite, error)
	ListClients(ctx context.Context, trainerID uuid.UUID, limit, offset int) ([]*models.TrainerClient, error)
	RemoveClient(ctx context.Context, trainerID, inviteID uuid.UUID) error
	UpdateContactInfo(ctx context.Context, userID uuid.UUID, phone, address string, name *string) error
}

type inviteService struct {
	inviteRepo  repositories.InviteRepository
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	emailSvc    EmailService
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	emailSvc EmailService,
) InviteService {
	return &inviteService{
		inviteRepo:  inviteRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		emailSvc:    emailSvc,
	}
}

// CreateInvite issues a pending invite for the email. At most one non-removed
// invite may exist per trainer and email, and a client already bound to a
// different trainer cannot be invited at all.
func (s *inviteService) CreateInvite(ctx context.Context, trainerID uuid.UUID, email, name string) (*models.ClientInvite, error) {
	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	active, err := s.inviteRepo.HasActiveInvite(ctx, trainerID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invites: %w", err)
	}
	if active {
		return nil, ErrInviteExists
	}

	record, err := s.userRepo.GetWithProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if record != nil && record.Profile != nil && record.Profile.Role == models.RoleClient {
		if record.Profile.InvitedBy == nil || *record.Profile.InvitedBy != trainerID {
			return nil, ErrClientOwned
		}
		return nil, ErrInviteExists
	}

	expiresAt := time.Now().Add(inviteTTL)
	invite := &models.ClientInvite{
		ID:        uuid.New(),
		TrainerID: trainerID,
		Email:     email,
		Name:      common.OptionalString(name),
		Token:     generateSecureToken(),
		Status:    models.InviteStatusPending,
		ExpiresAt: &expiresAt,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	// Best-effort notification; the invite stands even if mail fails.
	var trainerName *string
	if trainer, err := s.userRepo.GetWithProfileByID(ctx, trainerID); err == nil && trainer != nil {
		trainerName = trainer.User.Name
	}
	err = s.emailSvc.SendClientInviteEmail(ctx, InviteEmailParams{
		To:          invite.Email,
		TrainerName: trainerName,
		ClientName:  invite.Name,
		Token:       invite.Token,
		ExpiresAt:   invite.ExpiresAt,
	})
	if err != nil {
		log.Printf("Failed to send invite email to %s: %v", invite.Email, err)
	}

	return invite, nil
}

func (s *inviteService) ListClients(ctx context.Context, trainerID uuid.UUID, limit, offset int) ([]*models.TrainerClient, error) {
	return s.inviteRepo.ListTrainerClients(ctx, trainerID, limit, offset)
}

// RemoveClient marks the invite removed and deletes the bound client account,
// if any. Scoped to the calling trainer; other trainers' invites read as
// missing.
func (s *inviteService) RemoveClient(ctx context.Context, trainerID, inviteID uuid.UUID) error {
	removed, err := s.inviteRepo.RemoveClient(ctx, trainerID, inviteID)
	if err != nil {
		return fmt.Errorf("failed to remove client: %w", err)
	}
	if !removed {
		return ErrClientNotFound
	}
	return nil
}

func (s *inviteService) UpdateContactInfo(ctx context.Context, userID uuid.UUID, phone, address string, name *string) error {
	phone = strings.TrimSpace(phone)
	address = strings.TrimSpace(address)
	if phone == "" || address == "" {
		return ErrContactInfoRequired
	}
	if err := s.profileRepo.UpdateContactInfo(ctx, userID, phone, address, name); err != nil {
		return fmt.Errorf("failed to update contact info: %w", err)
	}
	return nil
}
