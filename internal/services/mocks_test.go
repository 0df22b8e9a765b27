package services

import (
	"context"
	"time"

	"lumi/internal/models"
	"lumi/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetWithProfileByEmail(ctx context.Context, email string) (*models.UserWithProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserWithProfile), args.Error(1)
}

func (m *MockUserRepository) GetWithProfileByID(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserWithProfile), args.Error(1)
}

func (m *MockUserRepository) CreateFromOAuth(ctx context.Context, email string, name *string) (*models.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LinkAccount(ctx context.Context, userID uuid.UUID, provider, providerAccountID string) error {
	args := m.Called(ctx, userID, provider, providerAccountID)
	return args.Error(0)
}

func (m *MockUserRepository) CreateClientAccount(ctx context.Context, params repositories.CreateClientAccountParams) (*models.UserWithProfile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserWithProfile), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *models.ClientInvite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) GetByToken(ctx context.Context, token string) (*models.InviteForRegistration, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InviteForRegistration), args.Error(1)
}

func (m *MockInviteRepository) HasActiveInvite(ctx context.Context, trainerID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, trainerID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockInviteRepository) FindLatestPendingByEmail(ctx context.Context, email string) (*models.ClientInvite, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientInvite), args.Error(1)
}

func (m *MockInviteRepository) MarkAccepted(ctx context.Context, inviteID, userID uuid.UUID) error {
	args := m.Called(ctx, inviteID, userID)
	return args.Error(0)
}

func (m *MockInviteRepository) ListTrainerClients(ctx context.Context, trainerID uuid.UUID, limit, offset int) ([]*models.TrainerClient, error) {
	args := m.Called(ctx, trainerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrainerClient), args.Error(1)
}

func (m *MockInviteRepository) RemoveClient(ctx context.Context, trainerID, inviteID uuid.UUID) (bool, error) {
	args := m.Called(ctx, trainerID, inviteID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInviteRepository) DeleteExpiredPending(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) UpdateContactInfo(ctx context.Context, userID uuid.UUID, phone, address string, name *string) error {
	args := m.Called(ctx, userID, phone, address, name)
	return args.Error(0)
}

type MockResetTokenRepository struct {
	mock.Mock
}

func (m *MockResetTokenRepository) Replace(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	args := m.Called(ctx, userID, token, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordResetToken), args.Error(1)
}

func (m *MockResetTokenRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordResetToken), args.Error(1)
}

func (m *MockResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendClientInviteEmail(ctx context.Context, params InviteEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, params ResetEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
