package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// RequireLogin validates the Authorization: Bearer access token and puts
// the parsed token under the "user" context key.
func RequireLogin(jwtSecret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningMethod: "HS256",
		SigningKey:    jwtSecret,
		ContextKey:    "user",
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
		},
		SuccessHandler: func(c echo.Context) {
			if tok, ok := c.Get("user").(*jwt.Token); ok {
				if claims, ok := tok.Claims.(jwt.MapClaims); ok {
					setUserContext(c, claims)
				}
			}
		},
	})
}
