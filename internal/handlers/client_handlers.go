package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"lumi/internal/common"
	"lumi/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const defaultClientPageSize = 50

type ClientHandler struct {
	inviteSvc services.InviteService
}

func NewClientHandler(inviteSvc services.InviteService) *ClientHandler {
	return &ClientHandler{inviteSvc: inviteSvc}
}

type createInviteRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateInvite issues an invite from the authenticated trainer to a client
// email.
func (h *ClientHandler) CreateInvite(c echo.Context) error {
	trainerID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if err := common.ValidateEmail(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}

	invite, err := h.inviteSvc.CreateInvite(c.Request().Context(), trainerID, req.Email, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailRequired):
			return common.SendValidationError(c, "email", err.Error())
		case errors.Is(err, services.ErrInviteExists), errors.Is(err, services.ErrClientOwned):
			return common.SendConflictError(c, err.Error())
		default:
			log.Printf("Failed to create invite for trainer %s: %v", trainerID, err)
			return common.SendServerError(c, "Unable to create invite")
		}
	}

	return c.JSON(http.StatusCreated, invite)
}

// ListClients returns the trainer's roster: accepted clients plus invites
// still waiting. Removed entries never appear.
func (h *ClientHandler) ListClients(c echo.Context) error {
	trainerID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit := defaultClientPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	clients, err := h.inviteSvc.ListClients(c.Request().Context(), trainerID, limit, offset)
	if err != nil {
		log.Printf("Failed to list clients for trainer %s: %v", trainerID, err)
		return common.SendServerError(c, "Unable to list clients")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"clients": clients,
		"limit":   limit,
		"offset":  offset,
	})
}

// RemoveClient removes an invite and, when a client account is bound to it,
// that account too.
func (h *ClientHandler) RemoveClient(c echo.Context) error {
	trainerID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", "invalid client id")
	}

	if err := h.inviteSvc.RemoveClient(c.Request().Context(), trainerID, inviteID); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			return common.SendNotFoundError(c, "Client")
		}
		log.Printf("Failed to remove client %s for trainer %s: %v", inviteID, trainerID, err)
		return common.SendServerError(c, "Unable to remove client")
	}

	return c.NoContent(http.StatusNoContent)
}
