package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lumi/internal/common"
	"lumi/internal/models"
	"lumi/internal/repositories"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrOAuthTokenInvalid = errors.New("provider token could not be verified")

// OAuthConfig describes the external identity provider. The ID token is
// verified against the provider's JWKS; issuer and audience checks apply
// when configured.
type OAuthConfig struct {
	Provider string
	JWKSURL  string
	Issuer   string
	Audience string
}

type OAuthService interface {
	SignIn(ctx context.Context, rawIDToken string) (*models.TokenResponse, error)
}

type oauthService struct {
	userRepo repositories.UserRepository
	authSvc  AuthService
	jwks     *keyfunc.JWKS
	config   OAuthConfig
}

func NewOAuthService(userRepo repositories.UserRepository, authSvc AuthService, config OAuthConfig) (OAuthService, error) {
	jwks, err := keyfunc.Get(config.JWKSURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: 5 * time.Minute,
		RefreshErrorHandler: func(err error) {
			log.Printf("Failed to refresh provider JWKS: %v", err)
		},
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load provider JWKS from %s: %w", config.JWKSURL, err)
	}

	return &oauthService{
		userRepo: userRepo,
		authSvc:  authSvc,
		jwks:     jwks,
		config:   config,
	}, nil
}

// SignIn verifies a provider ID token, finds or creates the matching user,
// links the provider identity and issues a session token. First sign-in runs
// profile bootstrap, which may accept a pending invite.
func (s *oauthService) SignIn(ctx context.Context, rawIDToken string) (*models.TokenResponse, error) {
	var opts []jwt.ParserOption
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.Parse(rawIDToken, s.jwks.Keyfunc, opts...)
	if err != nil || !token.Valid {
		return nil, ErrOAuthTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrOAuthTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, ErrOAuthTokenInvalid
	}
	var name *string
	if n, ok := claims["name"].(string); ok && n != "" {
		name = &n
	}

	email = common.NormalizeEmail(email)
	record, err := s.userRepo.GetWithProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var user *models.User
	if record != nil {
		user = &record.User
	} else {
		user, err = s.userRepo.CreateFromOAuth(ctx, email, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	if err := s.userRepo.LinkAccount(ctx, user.ID, s.config.Provider, sub); err != nil {
		return nil, fmt.Errorf("failed to link provider account: %w", err)
	}

	profile, err := s.authSvc.EnsureProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.authSvc.GenerateToken(user, profile.Role)
}
