package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"lumi/internal/caching"
	"lumi/internal/common"
	"lumi/internal/repositories"
	"lumi/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

type AuthHandler struct {
	authSvc  services.AuthService
	oauthSvc services.OAuthService // nil when no provider is configured
	userRepo repositories.UserRepository
	cacheSvc caching.CacheService
}

func NewAuthHandler(
	authSvc services.AuthService,
	oauthSvc services.OAuthService,
	userRepo repositories.UserRepository,
	cacheSvc caching.CacheService,
) *AuthHandler {
	return &AuthHandler{
		authSvc:  authSvc,
		oauthSvc: oauthSvc,
		userRepo: userRepo,
		cacheSvc: cacheSvc,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a session token for valid credentials. Bad password and
// missing account return distinct codes so the UI can point OAuth-only users
// at the right door.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}
	if req.Password == "" {
		return common.SendValidationError(c, "password", "password is required")
	}

	if tooMany := h.throttle(c, "login:"+c.RealIP()); tooMany != nil {
		return tooMany
	}

	token, err := h.authSvc.LoginWithCredentials(c.Request().Context(), common.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("INVALID_CREDENTIALS", err.Error(), nil))
		case errors.Is(err, services.ErrNoAccount):
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("NO_ACCOUNT", err.Error(), nil))
		default:
			log.Printf("Login failed for %s: %v", common.NormalizeEmail(req.Email), err)
			return common.SendServerError(c, "Unable to sign in right now")
		}
	}

	return c.JSON(http.StatusOK, token)
}

type oauthRequest struct {
	IDToken string `json:"id_token"`
}

// OAuth exchanges a provider ID token for a session token.
func (h *AuthHandler) OAuth(c echo.Context) error {
	if h.oauthSvc == nil {
		return c.JSON(http.StatusNotImplemented, common.CreateErrorResponse("NOT_CONFIGURED", "OAuth sign-in is not configured", nil))
	}

	var req oauthRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if req.IDToken == "" {
		return common.SendValidationError(c, "id_token", "id_token is required")
	}

	token, err := h.oauthSvc.SignIn(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, services.ErrOAuthTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("INVALID_TOKEN", err.Error(), nil))
		}
		log.Printf("OAuth sign-in failed: %v", err)
		return common.SendServerError(c, "Unable to sign in right now")
	}

	return c.JSON(http.StatusOK, token)
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	record, err := h.userRepo.GetWithProfileByID(c.Request().Context(), userID)
	if err != nil {
		log.Printf("Failed to load principal %s: %v", userID, err)
		return common.SendServerError(c, "Unable to load account")
	}
	if record == nil {
		return common.SendUnauthorizedError(c)
	}

	resp := map[string]any{
		"id":    record.User.ID,
		"name":  record.User.Name,
		"email": record.User.Email,
	}
	if record.Profile != nil {
		resp["role"] = record.Profile.Role
		resp["phone"] = record.Profile.Phone
		resp["address"] = record.Profile.Address
	}
	return c.JSON(http.StatusOK, resp)
}

// throttle returns a 429 response when the key is over its window budget.
// Cache errors fail open; sign-in should not depend on Redis health.
func (h *AuthHandler) throttle(c echo.Context, key string) error {
	if h.cacheSvc == nil {
		return nil
	}

	limited, err := h.cacheSvc.IsRateLimited(c.Request().Context(), key, loginRateLimit, loginRateWindow)
	if err != nil {
		log.Printf("Rate limit check failed for %s: %v", key, err)
		return nil
	}
	if limited {
		return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many attempts, try again later", nil))
	}
	if err := h.cacheSvc.IncrementRateLimit(c.Request().Context(), key, loginRateWindow); err != nil {
		log.Printf("Rate limit increment failed for %s: %v", key, err)
	}
	return nil
}
