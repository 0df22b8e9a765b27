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

	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

var (
	ErrResetTokenInvalid = errors.New("this reset link is not valid")
	ErrResetTokenUsed    = errors.New("this reset link has already been used")
	ErrResetTokenExpired = errors.New("this reset link has expired, request a new one")
	ErrResetEmailFailed  = errors.New("unable to send the reset email right now, try again soon")
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ValidateToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
}

type passwordResetService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.ResetTokenRepository
	emailSvc  EmailService
}

func NewPasswordResetService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.ResetTokenRepository,
	emailSvc EmailService,
) PasswordResetService {
	return &passwordResetService{userRepo: userRepo, tokenRepo: tokenRepo, emailSvc: emailSvc}
}

// RequestReset issues a fresh reset token and emails the link. Unknown and
// passwordless emails succeed without creating a token, so the endpoint
// cannot be used to probe which emails are registered. A mail delivery
// failure is surfaced: the caller got no link and should know.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	record, err := s.userRepo.GetWithProfileByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if record == nil || record.User.PasswordHash == nil {
		return nil
	}

	token, err := s.tokenRepo.Replace(ctx, record.User.ID, generateSecureToken(), time.Now().Add(resetTokenTTL))
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	err = s.emailSvc.SendPasswordResetEmail(ctx, ResetEmailParams{
		To:        record.User.Email,
		Name:      record.User.Name,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		log.Printf("Failed to send password reset email to %s: %v", record.User.Email, err)
		return ErrResetEmailFailed
	}
	return nil
}

// ValidateToken distinguishes used from expired from unknown so the reset
// page can explain what happened. Used is checked before expired: a consumed
// token stays "used" even after its deadline passes.
func (s *passwordResetService) ValidateToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrResetTokenInvalid
	}

	record, err := s.tokenRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}
	if record == nil {
		return nil, ErrResetTokenInvalid
	}
	if record.UsedAt != nil {
		return nil, ErrResetTokenUsed
	}
	if record.ExpiresAt.Before(time.Now()) {
		return nil, ErrResetTokenExpired
	}
	return record, nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if err := validatePassword(password, confirmPassword); err != nil {
		return err
	}

	record, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, record.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.tokenRepo.MarkUsed(ctx, record.ID); err != nil {
		return err
	}
	return nil
}
