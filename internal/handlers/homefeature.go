package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/models"
)

type HomeFeatureHandler struct {
	DB *gorm.DB
}

func (h *HomeFeatureHandler) GetFeatures(c echo.Context) error {
	var features []models.HomeFeature
	if err := h.DB.Where("active = ?", true).Order("position ASC").Find(&features).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, features)
}

func (h *HomeFeatureHandler) CreateFeature(c echo.Context) error {
	var req struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		ImageURL string `json:"image_url"`
		LinkURL  string `json:"link_url"`
		Position int    `json:"position"`
		Active   *bool  `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.ImageURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and image_url are required")
	}

	feature := models.HomeFeature{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Position: req.Position,
		Active:   true,
	}
	if req.Active != nil {
		feature.Active = *req.Active
	}
	if err := h.DB.Create(&feature).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, feature)
}

func (h *HomeFeatureHandler) PatchFeature(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		ImageURL string `json:"image_url"`
		LinkURL  string `json:"link_url"`
		Position *int   `json:"position"`
		Active   *bool  `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var feature models.HomeFeature
	if err := h.DB.First(&feature, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "feature not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Title != "" {
		feature.Title = req.Title
	}
	if req.Subtitle != "" {
		feature.Subtitle = req.Subtitle
	}
	if req.ImageURL != "" {
		feature.ImageURL = req.ImageURL
	}
	if req.LinkURL != "" {
		feature.LinkURL = req.LinkURL
	}
	if req.Position != nil {
		feature.Position = *req.Position
	}
	if req.Active != nil {
		feature.Active = *req.Active
	}

	if err := h.DB.Save(&feature).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, feature)
}

func (h *HomeFeatureHandler) DeleteFeature(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.HomeFeature{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
