package handlers

import (
	"errors"
	"log"
	"net/http"

	"lumi/internal/common"
	"lumi/internal/services"

	"github.com/labstack/echo/v4"
)

type RegistrationHandler struct {
	accountSvc services.AccountService
}

func NewRegistrationHandler(accountSvc services.AccountService) *RegistrationHandler {
	return &RegistrationHandler{accountSvc: accountSvc}
}

// GetInvite resolves a registration token for the signup page. Unknown and
// removed tokens read as 404; used and expired ones as 410 so the page can
// explain why the link stopped working.
func (h *RegistrationHandler) GetInvite(c echo.Context) error {
	invite, err := h.accountSvc.ResolveInvite(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.inviteError(c, err)
	}

	return c.JSON(http.StatusOK, invite)
}

type registerRequest struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// Register provisions the client account for a pending invite.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	account, err := h.accountSvc.RegisterClient(c.Request().Context(), services.RegisterClientParams{
		Token:           req.Token,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
		Address:         req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordRequired),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrPasswordMismatch):
			return common.SendValidationError(c, "password", err.Error())
		case errors.Is(err, services.ErrContactInfoRequired):
			return common.SendValidationError(c, "contact", err.Error())
		default:
			return h.inviteError(c, err)
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":    account.User.ID,
		"email": account.User.Email,
		"name":  account.User.Name,
	})
}

func (h *RegistrationHandler) inviteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrTokenRequired):
		return common.SendValidationError(c, "token", err.Error())
	case errors.Is(err, services.ErrInviteInvalid):
		return common.SendNotFoundError(c, "Invite")
	case errors.Is(err, services.ErrInviteUsed), errors.Is(err, services.ErrInviteExpired):
		return c.JSON(http.StatusGone, common.CreateErrorResponse("INVITE_GONE", err.Error(), nil))
	case errors.Is(err, services.ErrAccountExists):
		return common.SendConflictError(c, err.Error())
	default:
		log.Printf("Invite resolution failed: %v", err)
		return common.SendServerError(c, "Unable to process registration")
	}
}
