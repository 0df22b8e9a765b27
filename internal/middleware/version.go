package middleware

import (
	"github.com/labstack/echo/v4"
)

const VersionHeader = "X-API-Version"

// APIVersion stamps every response with the running release.
func APIVersion(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(VersionHeader, version)
			return next(c)
		}
	}
}
