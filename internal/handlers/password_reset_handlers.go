package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"lumi/internal/caching"
	"lumi/internal/common"
	"lumi/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	resetRateLimit  = 5
	resetRateWindow = time.Minute
)

type PasswordResetHandler struct {
	resetSvc services.PasswordResetService
	cacheSvc caching.CacheService
}

func NewPasswordResetHandler(resetSvc services.PasswordResetService, cacheSvc caching.CacheService) *PasswordResetHandler {
	return &PasswordResetHandler{resetSvc: resetSvc, cacheSvc: cacheSvc}
}

type resetRequestBody struct {
	Email string `json:"email"`
}

// RequestReset issues a reset link. Always answers success for well-formed
// emails, known or not; only delivery failure is surfaced.
func (h *PasswordResetHandler) RequestReset(c echo.Context) error {
	var req resetRequestBody
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}

	if h.cacheSvc != nil {
		key := "reset:" + c.RealIP()
		limited, err := h.cacheSvc.IsRateLimited(c.Request().Context(), key, resetRateLimit, resetRateWindow)
		if err == nil && limited {
			return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many attempts, try again later", nil))
		}
		if err := h.cacheSvc.IncrementRateLimit(c.Request().Context(), key, resetRateWindow); err != nil {
			log.Printf("Rate limit increment failed for %s: %v", key, err)
		}
	}

	if err := h.resetSvc.RequestReset(c.Request().Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailRequired):
			return common.SendValidationError(c, "email", err.Error())
		case errors.Is(err, services.ErrResetEmailFailed):
			return common.SendServerError(c, err.Error())
		default:
			log.Printf("Password reset request failed: %v", err)
			return common.SendServerError(c, "Unable to process reset request")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "If an account exists for that email, a reset link is on its way",
	})
}

// ValidateToken lets the reset page check a link before showing the form.
func (h *PasswordResetHandler) ValidateToken(c echo.Context) error {
	record, err := h.resetSvc.ValidateToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.tokenError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":      true,
		"expires_at": record.ExpiresAt,
	})
}

type resetPasswordBody struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Reset consumes the token and sets the new password.
func (h *PasswordResetHandler) Reset(c echo.Context) error {
	var req resetPasswordBody
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	if err := h.resetSvc.ResetPassword(c.Request().Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordRequired),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrPasswordMismatch):
			return common.SendValidationError(c, "password", err.Error())
		default:
			return h.tokenError(c, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password updated, you can sign in now",
	})
}

func (h *PasswordResetHandler) tokenError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrResetTokenInvalid):
		return common.SendNotFoundError(c, "Reset token")
	case errors.Is(err, services.ErrResetTokenUsed), errors.Is(err, services.ErrResetTokenExpired):
		return c.JSON(http.StatusGone, common.CreateErrorResponse("TOKEN_GONE", err.Error(), nil))
	default:
		log.Printf("Reset token validation failed: %v", err)
		return common.SendServerError(c, "Unable to process reset")
	}
}
