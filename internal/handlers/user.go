package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/hash"
	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/service/token"
	"github.com/akozhevin/storefront/internal/util"
)

type UserHandler struct {
	DB     *gorm.DB
	Tokens *token.TokenService
}

func (h *UserHandler) Me(c echo.Context) error {
	var user models.User
	if err := h.DB.First(&user, authmw.UserID(c)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Password    string `json:"password"`
		OldPassword string `json:"old_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.First(&user, authmw.UserID(c)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}

	if req.Password != "" {
		if !hash.CheckPassword(user.PasswordHash, req.OldPassword) {
			return echo.NewHTTPError(http.StatusForbidden, "old password does not match")
		}
		if len(req.Password) < 8 {
			return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		}
		pwHash, err := hash.HashPassword(req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		user.PasswordHash = pwHash
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// password change invalidates every outstanding refresh token
	if req.Password != "" {
		if err := h.Tokens.BumpVersion(user.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(users, page, limit, total))
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.User{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
