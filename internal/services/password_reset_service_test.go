package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lumi/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type PasswordResetServiceTestSuite struct {
	suite.Suite
	userRepo  *MockUserRepository
	tokenRepo *MockResetTokenRepository
	emailSvc  *MockEmailService
	service   PasswordResetService
	ctx       context.Context
}

func (s *PasswordResetServiceTestSuite) SetupTest() {
	s.userRepo = new(MockUserRepository)
	s.tokenRepo = new(MockResetTokenRepository)
	s.emailSvc = new(MockEmailService)
	s.service = NewPasswordResetService(s.userRepo, s.tokenRepo, s.emailSvc)
	s.ctx = context.Background()
}

func (s *PasswordResetServiceTestSuite) passwordUser() *models.UserWithProfile {
	hash := "bcrypt-hash"
	return &models.UserWithProfile{
		User: models.User{ID: uuid.New(), Email: "t@example.com", PasswordHash: &hash},
	}
}

func (s *PasswordResetServiceTestSuite) TestRequestResetUnknownEmailDoesNotLeak() {
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "nobody@example.com").Return(nil, nil)

	err := s.service.RequestReset(s.ctx, "nobody@example.com")
	s.NoError(err)
	s.tokenRepo.AssertNotCalled(s.T(), "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.emailSvc.AssertNotCalled(s.T(), "SendPasswordResetEmail", mock.Anything, mock.Anything)
}

func (s *PasswordResetServiceTestSuite) TestRequestResetPasswordlessAccountDoesNotLeak() {
	record := &models.UserWithProfile{User: models.User{ID: uuid.New(), Email: "oauth@example.com"}}
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "oauth@example.com").Return(record, nil)

	s.NoError(s.service.RequestReset(s.ctx, "oauth@example.com"))
	s.tokenRepo.AssertNotCalled(s.T(), "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *PasswordResetServiceTestSuite) TestRequestResetIssuesTokenAndMails() {
	record := s.passwordUser()
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "t@example.com").Return(record, nil)

	issued := &models.PasswordResetToken{
		ID: uuid.New(), UserID: record.User.ID, Token: "issued-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	s.tokenRepo.On("Replace", s.ctx, record.User.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(issued, nil)
	s.emailSvc.On("SendPasswordResetEmail", s.ctx, mock.MatchedBy(func(p ResetEmailParams) bool {
		return p.To == "t@example.com" && p.Token == "issued-token"
	})).Return(nil)

	s.NoError(s.service.RequestReset(s.ctx, " T@Example.com "))
	s.tokenRepo.AssertExpectations(s.T())
	s.emailSvc.AssertExpectations(s.T())
}

func (s *PasswordResetServiceTestSuite) TestRequestResetSurfacesMailFailure() {
	record := s.passwordUser()
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "t@example.com").Return(record, nil)
	s.tokenRepo.On("Replace", s.ctx, record.User.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(&models.PasswordResetToken{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	s.emailSvc.On("SendPasswordResetEmail", s.ctx, mock.AnythingOfType("services.ResetEmailParams")).
		Return(errors.New("smtp down"))

	err := s.service.RequestReset(s.ctx, "t@example.com")
	s.ErrorIs(err, ErrResetEmailFailed)
}

func (s *PasswordResetServiceTestSuite) TestValidateTokenUnknown() {
	s.tokenRepo.On("GetByToken", s.ctx, "bogus").Return(nil, nil)

	_, err := s.service.ValidateToken(s.ctx, "bogus")
	s.ErrorIs(err, ErrResetTokenInvalid)
}

func (s *PasswordResetServiceTestSuite) TestValidateTokenUsedWinsOverExpired() {
	used := time.Now().Add(-2 * time.Hour)
	record := &models.PasswordResetToken{
		ID: uuid.New(), UserID: uuid.New(), Token: "tok",
		ExpiresAt: time.Now().Add(-time.Hour), UsedAt: &used,
	}
	s.tokenRepo.On("GetByToken", s.ctx, "tok").Return(record, nil)

	_, err := s.service.ValidateToken(s.ctx, "tok")
	s.ErrorIs(err, ErrResetTokenUsed)
}

func (s *PasswordResetServiceTestSuite) TestValidateTokenExpired() {
	record := &models.PasswordResetToken{
		ID: uuid.New(), UserID: uuid.New(), Token: "tok",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	s.tokenRepo.On("GetByToken", s.ctx, "tok").Return(record, nil)

	_, err := s.service.ValidateToken(s.ctx, "tok")
	s.ErrorIs(err, ErrResetTokenExpired)
}

func (s *PasswordResetServiceTestSuite) TestResetPasswordSuccess() {
	userID := uuid.New()
	record := &models.PasswordResetToken{
		ID: uuid.New(), UserID: userID, Token: "tok",
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	s.tokenRepo.On("GetByToken", s.ctx, "tok").Return(record, nil)
	s.userRepo.On("UpdatePassword", s.ctx, userID, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
	})).Return(nil)
	s.tokenRepo.On("MarkUsed", s.ctx, record.ID).Return(nil)

	s.NoError(s.service.ResetPassword(s.ctx, "tok", "new-password", "new-password"))
	s.userRepo.AssertExpectations(s.T())
	s.tokenRepo.AssertExpectations(s.T())
}

func (s *PasswordResetServiceTestSuite) TestResetPasswordValidatesBeforeLookup() {
	err := s.service.ResetPassword(s.ctx, "tok", "short", "short")
	s.ErrorIs(err, ErrPasswordTooShort)
	s.tokenRepo.AssertNotCalled(s.T(), "GetByToken", mock.Anything, mock.Anything)
}

func TestPasswordResetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PasswordResetServiceTestSuite))
}
