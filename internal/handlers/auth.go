package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/hash"
	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/mykafka"
	"github.com/akozhevin/storefront/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "valid email is required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	pair, err := h.Tokens.IssuePair(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}

	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", pair.RefreshExpiresAt))

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie("refreshToken")
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, user, err := h.Tokens.Rotate(cookie.Value)
	if err != nil {
		if errors.Is(err, token.ErrStaleRefresh) || errors.Is(err, token.ErrInvalidRefresh) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", pair.RefreshExpiresAt))

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie("refreshToken")
	if err == nil && cookie.Value != "" {
		if err := h.Tokens.Revoke(cookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	expired := time.Now().Add(-time.Hour)
	c.SetCookie(CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll bumps the user's token_version so every refresh token issued
// so far stops validating, whichever device holds it.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID := authmw.UserID(c)
	if err := h.Tokens.BumpVersion(userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	expired := time.Now().Add(-time.Hour)
	c.SetCookie(CreateCookie("refreshToken", "", "/", expired))

	publish(c, h.Producer, "user_events", fmt.Sprint(userID), map[string]any{
		"type":   "user_logged_out_everywhere",
		"userID": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "all sessions revoked"})
}
