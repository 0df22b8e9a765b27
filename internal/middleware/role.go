package middleware

import (
	"net/http"

	"lumi/internal/common"
	"lumi/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole gates a route group to a single role. Runs after Session, which
// put the role on the request context.
func RequireRole(role models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actual, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if actual != role {
				return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", "Insufficient permissions", nil))
			}
			return next(c)
		}
	}
}
