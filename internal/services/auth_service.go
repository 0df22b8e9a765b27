package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"lumi/internal/models"
	"lumi/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// NoInviteDefaultRole is the role granted on first sign-in when no pending
// invite matches the email: self-serve signups become trainers. Credential
// sign-in never applies this default; it requires an existing profile.
const NoInviteDefaultRole = models.RoleTrainer

// Sign-in failures collapse to exactly these two signals so the UI can give
// different guidance without revealing whether the email is registered.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoAccount          = errors.New("no account or invite found for this email")
)

// SessionClaims are the JWT claims carried by a session token. Role may be
// empty for tokens minted before a profile existed; the session middleware
// resolves it lazily in that case.
type SessionClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	LoginWithCredentials(ctx context.Context, email, password string) (*models.TokenResponse, error)
	EnsureProfile(ctx context.Context, user *models.User) (*models.UserProfile, error)
	GenerateToken(user *models.User, role models.UserRole) (*models.TokenResponse, error)
	ValidateToken(token string) (*SessionClaims, error)
}

type authService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	inviteRepo  repositories.InviteRepository
	jwtSecret   []byte
	tokenTTL    int // seconds
}

func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	inviteRepo repositories.InviteRepository,
	jwtSecret string,
	tokenTTLSeconds int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		inviteRepo:  inviteRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTLSeconds,
	}
}

// LoginWithCredentials authorizes a password sign-in. A client-role profile
// without an inviter is treated as having no account.
func (s *authService) LoginWithCredentials(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	record, err := s.userRepo.GetWithProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("credential lookup failed: %w", err)
	}

	if record == nil || record.User.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*record.User.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if record.Profile == nil {
		return nil, ErrNoAccount
	}
	if record.Profile.Role == models.RoleClient && record.Profile.InvitedBy == nil {
		return nil, ErrNoAccount
	}

	return s.GenerateToken(&record.User, record.Profile.Role)
}

// EnsureProfile bootstraps the profile on OAuth sign-in. Idempotent: an
// existing profile short-circuits. The newest pending invite for the email
// assigns role client and binds the invite; otherwise the default role
// applies.
func (s *authService) EnsureProfile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	existing, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	profile := &models.UserProfile{UserID: user.ID, Role: NoInviteDefaultRole}

	if user.Email != "" {
		invite, err := s.inviteRepo.FindLatestPendingByEmail(ctx, user.Email)
		if err != nil {
			return nil, fmt.Errorf("invite lookup failed: %w", err)
		}
		if invite != nil {
			profile.Role = models.RoleClient
			trainerID := invite.TrainerID
			profile.InvitedBy = &trainerID
			if err := s.inviteRepo.MarkAccepted(ctx, invite.ID, user.ID); err != nil {
				return nil, err
			}
		}
	}

	return s.profileRepo.Upsert(ctx, profile)
}

func (s *authService) GenerateToken(user *models.User, role models.UserRole) (*models.TokenResponse, error) {
	now := time.Now()
	name := ""
	if user.Name != nil {
		name = *user.Name
	}

	claims := SessionClaims{
		Name:  name,
		Email: user.Email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lumi-auth",
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{"lumi-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenTTL) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokenTTL,
		UserID:      user.ID.String(),
		Role:        string(role),
		IssuedAt:    now,
	}, nil
}

func (s *authService) ValidateToken(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if claims, ok := parsed.Claims.(*SessionClaims); ok && parsed.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}

// generateSecureToken generates a cryptographically secure random token
// suitable for invite and reset links.
func generateSecureToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}
