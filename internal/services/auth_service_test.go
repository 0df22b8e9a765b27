package services

import (
	"context"
	"testing"

	"lumi/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo    *MockUserRepository
	profileRepo *MockProfileRepository
	inviteRepo  *MockInviteRepository
	service     AuthService
	ctx         context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.userRepo = new(MockUserRepository)
	s.profileRepo = new(MockProfileRepository)
	s.inviteRepo = new(MockInviteRepository)
	s.service = NewAuthService(s.userRepo, s.profileRepo, s.inviteRepo, "test-secret", 3600)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) hashOf(password string) *string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	str := string(hash)
	return &str
}

func (s *AuthServiceTestSuite) TestLoginUnknownEmail() {
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "nobody@example.com").Return(nil, nil)

	_, err := s.service.LoginWithCredentials(s.ctx, "nobody@example.com", "whatever")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginPasswordlessAccount() {
	record := &models.UserWithProfile{
		User:    models.User{ID: uuid.New(), Email: "oauth@example.com"},
		Profile: &models.UserProfile{Role: models.RoleTrainer},
	}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "oauth@example.com").Return(record, nil)

	_, err := s.service.LoginWithCredentials(s.ctx, "oauth@example.com", "whatever")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	record := &models.UserWithProfile{
		User:    models.User{ID: uuid.New(), Email: "t@example.com", PasswordHash: s.hashOf("correct-horse")},
		Profile: &models.UserProfile{Role: models.RoleTrainer},
	}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "t@example.com").Return(record, nil)

	_, err := s.service.LoginWithCredentials(s.ctx, "t@example.com", "wrong-horse")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginWithoutProfile() {
	record := &models.UserWithProfile{
		User: models.User{ID: uuid.New(), Email: "t@example.com", PasswordHash: s.hashOf("correct-horse")},
	}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "t@example.com").Return(record, nil)

	_, err := s.service.LoginWithCredentials(s.ctx, "t@example.com", "correct-horse")
	s.ErrorIs(err, ErrNoAccount)
}

func (s *AuthServiceTestSuite) TestLoginOrphanedClient() {
	record := &models.UserWithProfile{
		User:    models.User{ID: uuid.New(), Email: "c@example.com", PasswordHash: s.hashOf("correct-horse")},
		Profile: &models.UserProfile{Role: models.RoleClient},
	}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "c@example.com").Return(record, nil)

	_, err := s.service.LoginWithCredentials(s.ctx, "c@example.com", "correct-horse")
	s.ErrorIs(err, ErrNoAccount)
}

func (s *AuthServiceTestSuite) TestLoginSuccess() {
	userID := uuid.New()
	trainerID := uuid.New()
	record := &models.UserWithProfile{
		User:    models.User{ID: userID, Email: "c@example.com", PasswordHash: s.hashOf("correct-horse")},
		Profile: &models.UserProfile{Role: models.RoleClient, InvitedBy: &trainerID},
	}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "c@example.com").Return(record, nil)

	token, err := s.service.LoginWithCredentials(s.ctx, "c@example.com", "correct-horse")
	s.Require().NoError(err)
	s.Equal("Bearer", token.TokenType)
	s.Equal(userID.String(), token.UserID)

	claims, err := s.service.ValidateToken(token.AccessToken)
	s.Require().NoError(err)
	s.Equal(userID.String(), claims.Subject)
	s.Equal(string(models.RoleClient), claims.Role)
	s.Equal("c@example.com", claims.Email)
}

func (s *AuthServiceTestSuite) TestValidateTokenRejectsForeignSignature() {
	other := NewAuthService(s.userRepo, s.profileRepo, s.inviteRepo, "other-secret", 3600)
	token, err := other.GenerateToken(&models.User{ID: uuid.New(), Email: "x@example.com"}, models.RoleTrainer)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token.AccessToken)
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestEnsureProfileShortCircuitsOnExisting() {
	user := &models.User{ID: uuid.New(), Email: "t@example.com"}
	existing := &models.UserProfile{UserID: user.ID, Role: models.RoleTrainer}
	s.profileRepo.On("GetByUserID", s.ctx, user.ID).Return(existing, nil)

	profile, err := s.service.EnsureProfile(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(existing, profile)
	s.inviteRepo.AssertNotCalled(s.T(), "FindLatestPendingByEmail", mock.Anything, mock.Anything)
	s.profileRepo.AssertNotCalled(s.T(), "Upsert", mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestEnsureProfileAcceptsPendingInvite() {
	user := &models.User{ID: uuid.New(), Email: "c@example.com"}
	trainerID := uuid.New()
	invite := &models.ClientInvite{ID: uuid.New(), TrainerID: trainerID, Email: "c@example.com", Status: models.InviteStatusPending}

	s.profileRepo.On("GetByUserID", s.ctx, user.ID).Return(nil, nil)
	s.inviteRepo.On("FindLatestPendingByEmail", s.ctx, "c@example.com").Return(invite, nil)
	s.inviteRepo.On("MarkAccepted", s.ctx, invite.ID, user.ID).Return(nil)
	s.profileRepo.On("Upsert", s.ctx, mock.MatchedBy(func(p *models.UserProfile) bool {
		return p.Role == models.RoleClient && p.InvitedBy != nil && *p.InvitedBy == trainerID
	})).Return(&models.UserProfile{UserID: user.ID, Role: models.RoleClient, InvitedBy: &trainerID}, nil)

	profile, err := s.service.EnsureProfile(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(models.RoleClient, profile.Role)
	s.inviteRepo.AssertExpectations(s.T())
}

func (s *AuthServiceTestSuite) TestEnsureProfileDefaultsToTrainer() {
	user := &models.User{ID: uuid.New(), Email: "new@example.com"}

	s.profileRepo.On("GetByUserID", s.ctx, user.ID).Return(nil, nil)
	s.inviteRepo.On("FindLatestPendingByEmail", s.ctx, "new@example.com").Return(nil, nil)
	s.profileRepo.On("Upsert", s.ctx, mock.MatchedBy(func(p *models.UserProfile) bool {
		return p.Role == models.RoleTrainer && p.InvitedBy == nil
	})).Return(&models.UserProfile{UserID: user.ID, Role: models.RoleTrainer}, nil)

	profile, err := s.service.EnsureProfile(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(models.RoleTrainer, profile.Role)
	s.inviteRepo.AssertNotCalled(s.T(), "MarkAccepted", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
