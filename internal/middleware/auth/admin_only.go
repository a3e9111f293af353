package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akozhevin/storefront/internal/models"
)

// AdminOnly must run after RequireLogin.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Role(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin privilege required")
		}
		return next(c)
	}
}
