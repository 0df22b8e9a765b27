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
)

type InviteServiceTestSuite struct {
	suite.Suite
	inviteRepo  *MockInviteRepository
	userRepo    *MockUserRepository
	profileRepo *MockProfileRepository
	emailSvc    *MockEmailService
	service     InviteService
	ctx         context.Context
	trainerID   uuid.UUID
}

func (s *InviteServiceTestSuite) SetupTest() {
	s.inviteRepo = new(MockInviteRepository)
	s.userRepo = new(MockUserRepository)
	s.profileRepo = new(MockProfileRepository)
	s.emailSvc = new(MockEmailService)
	s.service = NewInviteService(s.inviteRepo, s.userRepo, s.profileRepo, s.emailSvc)
	s.ctx = context.Background()
	s.trainerID = uuid.New()
}

func (s *InviteServiceTestSuite) TestCreateInviteRequiresEmail() {
	_, err := s.service.CreateInvite(s.ctx, s.trainerID, "   ", "")
	s.ErrorIs(err, ErrEmailRequired)
}

func (s *InviteServiceTestSuite) TestCreateInviteNormalizesEmail() {
	s.inviteRepo.On("HasActiveInvite", s.ctx, s.trainerID, "client@example.com").Return(false, nil)
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "client@example.com").Return(nil, nil)
	s.inviteRepo.On("Create", s.ctx, mock.AnythingOfType("*models.ClientInvite")).Return(nil)
	s.userRepo.On("GetWithProfileByID", s.ctx, s.trainerID).Return(nil, nil)
	s.emailSvc.On("SendClientInviteEmail", s.ctx, mock.AnythingOfType("services.InviteEmailParams")).Return(nil)

	invite, err := s.service.CreateInvite(s.ctx, s.trainerID, "  Client@Example.COM  ", "Dana")
	s.Require().NoError(err)
	s.Equal("client@example.com", invite.Email)
	s.Equal(models.InviteStatusPending, invite.Status)
	s.NotEmpty(invite.Token)
	s.Require().NotNil(invite.ExpiresAt)
	s.WithinDuration(time.Now().Add(7*24*time.Hour), *invite.ExpiresAt, time.Minute)
	s.inviteRepo.AssertExpectations(s.T())
}

func (s *InviteServiceTestSuite) TestCreateInviteRejectsDuplicate() {
	s.inviteRepo.On("HasActiveInvite", s.ctx, s.trainerID, "client@example.com").Return(true, nil)

	_, err := s.service.CreateInvite(s.ctx, s.trainerID, "client@example.com", "")
	s.ErrorIs(err, ErrInviteExists)
	s.inviteRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *InviteServiceTestSuite) TestCreateInviteRejectsAnotherTrainersClient() {
	otherTrainer := uuid.New()
	record := &models.UserWithProfile{
		User:    models.User{ID: uuid.New(), Email: "client@example.com"},
		Profile: &models.UserProfile{Role: models.RoleClient, InvitedBy: &otherTrainer},
	}
	s.inviteRepo.On("HasActiveInvite", s.ctx, s.trainerID, "client@example.com").Return(false, nil)
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "client@example.com").Return(record, nil)

	_, err := s.service.CreateInvite(s.ctx, s.trainerID, "client@example.com", "")
	s.ErrorIs(err, ErrClientOwned)
}

func (s *InviteServiceTestSuite) TestCreateInviteAllowsInvitingATrainer() {
	record := &models.UserWithProfile{
		User:    models.User{ID: uuid.New(), Email: "pro@example.com"},
		Profile: &models.UserProfile{Role: models.RoleTrainer},
	}
	s.inviteRepo.On("HasActiveInvite", s.ctx, s.trainerID, "pro@example.com").Return(false, nil)
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "pro@example.com").Return(record, nil)
	s.inviteRepo.On("Create", s.ctx, mock.AnythingOfType("*models.ClientInvite")).Return(nil)
	s.userRepo.On("GetWithProfileByID", s.ctx, s.trainerID).Return(nil, nil)
	s.emailSvc.On("SendClientInviteEmail", s.ctx, mock.AnythingOfType("services.InviteEmailParams")).Return(nil)

	_, err := s.service.CreateInvite(s.ctx, s.trainerID, "pro@example.com", "")
	s.NoError(err)
}

func (s *InviteServiceTestSuite) TestCreateInviteSurvivesEmailFailure() {
	s.inviteRepo.On("HasActiveInvite", s.ctx, s.trainerID, "client@example.com").Return(false, nil)
	s.userRepo.On("GetWithProfileByEmail", s.ctx, "client@example.com").Return(nil, nil)
	s.inviteRepo.On("Create", s.ctx, mock.AnythingOfType("*models.ClientInvite")).Return(nil)
	s.userRepo.On("GetWithProfileByID", s.ctx, s.trainerID).Return(nil, nil)
	s.emailSvc.On("SendClientInviteEmail", s.ctx, mock.AnythingOfType("services.InviteEmailParams")).
		Return(errors.New("smtp down"))

	invite, err := s.service.CreateInvite(s.ctx, s.trainerID, "client@example.com", "")
	s.Require().NoError(err)
	s.NotNil(invite)
}

func (s *InviteServiceTestSuite) TestRemoveClientNotFound() {
	inviteID := uuid.New()
	s.inviteRepo.On("RemoveClient", s.ctx, s.trainerID, inviteID).Return(false, nil)

	err := s.service.RemoveClient(s.ctx, s.trainerID, inviteID)
	s.ErrorIs(err, ErrClientNotFound)
}

func (s *InviteServiceTestSuite) TestRemoveClientSuccess() {
	inviteID := uuid.New()
	s.inviteRepo.On("RemoveClient", s.ctx, s.trainerID, inviteID).Return(true, nil)

	s.NoError(s.service.RemoveClient(s.ctx, s.trainerID, inviteID))
}

func (s *InviteServiceTestSuite) TestUpdateContactInfoRequiresBothFields() {
	userID := uuid.New()

	err := s.service.UpdateContactInfo(s.ctx, userID, "", "12 Main St", nil)
	s.ErrorIs(err, ErrContactInfoRequired)

	err = s.service.UpdateContactInfo(s.ctx, userID, "555-0100", "   ", nil)
	s.ErrorIs(err, ErrContactInfoRequired)
	s.profileRepo.AssertNotCalled(s.T(), "UpdateContactInfo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *InviteServiceTestSuite) TestUpdateContactInfoTrims() {
	userID := uuid.New()
	s.profileRepo.On("UpdateContactInfo", s.ctx, userID, "555-0100", "12 Main St", (*string)(nil)).Return(nil)

	s.NoError(s.service.UpdateContactInfo(s.ctx, userID, " 555-0100 ", " 12 Main St ", nil))
	s.profileRepo.AssertExpectations(s.T())
}

func TestInviteServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InviteServiceTestSuite))
}
