package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"lumi/internal/caching"
	"lumi/internal/common"
	"lumi/internal/models"
	"lumi/internal/repositories"
	"lumi/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const roleCacheTTL = time.Hour

// Session authenticates the request from its Bearer token and stores the
// user ID and role on the request context. Tokens without a role claim fall
// back to the cache, then the profile table.
func Session(authSvc services.AuthService, profileRepo repositories.ProfileRepository, cacheSvc caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return common.SendUnauthorizedError(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return common.SendUnauthorizedError(c)
			}

			claims, err := authSvc.ValidateToken(parts[1])
			if err != nil {
				return common.SendUnauthorizedError(c)
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return common.SendUnauthorizedError(c)
			}

			role := models.UserRole(claims.Role)
			if role == "" {
				role, err = resolveRole(c.Request().Context(), userID, profileRepo, cacheSvc)
				if err != nil {
					return common.SendUnauthorizedError(c)
				}
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.RoleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func resolveRole(ctx context.Context, userID uuid.UUID, profileRepo repositories.ProfileRepository, cacheSvc caching.CacheService) (models.UserRole, error) {
	if cacheSvc != nil {
		if cached, err := cacheSvc.GetRole(ctx, userID); err == nil && cached != "" {
			return models.UserRole(cached), nil
		}
	}

	profile, err := profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", echo.ErrUnauthorized
	}

	if cacheSvc != nil {
		if err := cacheSvc.SetRole(ctx, userID, string(profile.Role), roleCacheTTL); err != nil {
			log.Printf("Failed to cache role for %s: %v", userID, err)
		}
	}
	return profile.Role, nil
}
