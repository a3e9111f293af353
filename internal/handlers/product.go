package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/mykafka"
	"github.com/akozhevin/storefront/internal/service/search"
	"github.com/akozhevin/storefront/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

type productPayload struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               *float64        `json:"price"`
	ImageURL            string          `json:"image_url"`
	Stock               *int            `json:"stock"`
	CategoryID          *uint           `json:"category_id"`
	Details             json.RawMessage `json:"details"`
	Dimensions          json.RawMessage `json:"dimensions"`
	CareNotes           json.RawMessage `json:"care_notes"`
	SustainabilityNotes json.RawMessage `json:"sustainability_notes"`
	ColorVariants       json.RawMessage `json:"color_variants"`
}

// Flexible product fields are accepted only in these fixed shapes; anything
// else is rejected at the boundary instead of being stored opaque.
func validateProductJSON(p *productPayload) error {
	if len(p.Details) > 0 {
		var details map[string]string
		if err := json.Unmarshal(p.Details, &details); err != nil {
			return fmt.Errorf("details must be an object of strings")
		}
	}
	if len(p.Dimensions) > 0 {
		var dims struct {
			WidthCM  float64 `json:"width_cm"`
			HeightCM float64 `json:"height_cm"`
			DepthCM  float64 `json:"depth_cm"`
			WeightKG float64 `json:"weight_kg"`
		}
		if err := json.Unmarshal(p.Dimensions, &dims); err != nil {
			return fmt.Errorf("dimensions must be numeric width_cm/height_cm/depth_cm/weight_kg")
		}
	}
	for _, notes := range []json.RawMessage{p.CareNotes, p.SustainabilityNotes} {
		if len(notes) > 0 {
			var list []string
			if err := json.Unmarshal(notes, &list); err != nil {
				return fmt.Errorf("notes fields must be arrays of strings")
			}
		}
	}
	if len(p.ColorVariants) > 0 {
		var variants []struct {
			Name string `json:"name"`
			Hex  string `json:"hex"`
		}
		if err := json.Unmarshal(p.ColorVariants, &variants); err != nil {
			return fmt.Errorf("color_variants must be an array of {name, hex}")
		}
		for _, v := range variants {
			if v.Hex == "" {
				return fmt.Errorf("color variant missing hex")
			}
		}
	}
	return nil
}

func (h *ProductHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var images []models.ProductImage
	if err := h.DB.Where("product_id = ?", id).Order("position ASC").Find(&images).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var rating struct {
		Avg   float64
		Count int64
	}
	h.DB.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", id).
		Scan(&rating)

	return c.JSON(http.StatusOK, echo.Map{
		"product":      product,
		"images":       images,
		"avg_rating":   rating.Avg,
		"review_count": rating.Count,
	})
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Product{})
	if cat := c.QueryParam("category_id"); cat != "" {
		q = q.Where("category_id = ?", parseIntDefault(cat, 0))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(items, page, limit, total))
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name == "" || req.Price == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "name and price are required")
	}
	if *req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "stock must not be negative")
	}
	if err := validateProductJSON(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.CategoryID != nil {
		var cat models.Category
		if err := h.DB.First(&cat, *req.CategoryID).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "category does not exist")
		}
	}

	prod := models.Product{
		Name:                req.Name,
		Description:         req.Description,
		Price:               *req.Price,
		ImageURL:            req.ImageURL,
		CategoryID:          req.CategoryID,
		Details:             datatypes.JSON(req.Details),
		Dimensions:          datatypes.JSON(req.Dimensions),
		CareNotes:           datatypes.JSON(req.CareNotes),
		SustainabilityNotes: datatypes.JSON(req.SustainabilityNotes),
		ColorVariants:       datatypes.JSON(req.ColorVariants),
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req productPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateProductJSON(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Name != "" {
		prod.Name = req.Name
	}
	if req.Description != "" {
		prod.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
		}
		prod.Price = *req.Price
	}
	if req.ImageURL != "" {
		prod.ImageURL = req.ImageURL
	}
	if req.CategoryID != nil {
		var cat models.Category
		if err := h.DB.First(&cat, *req.CategoryID).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "category does not exist")
		}
		prod.CategoryID = req.CategoryID
	}
	if len(req.Details) > 0 {
		prod.Details = datatypes.JSON(req.Details)
	}
	if len(req.Dimensions) > 0 {
		prod.Dimensions = datatypes.JSON(req.Dimensions)
	}
	if len(req.CareNotes) > 0 {
		prod.CareNotes = datatypes.JSON(req.CareNotes)
	}
	if len(req.SustainabilityNotes) > 0 {
		prod.SustainabilityNotes = datatypes.JSON(req.SustainabilityNotes)
	}
	if len(req.ColorVariants) > 0 {
		prod.ColorVariants = datatypes.JSON(req.ColorVariants)
	}

	// stock changes go through the inventory adjustment path only
	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteProduct(c.Request().Context(), h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	publish(c, h.Producer, "product_events", fmt.Sprint(id), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) AddImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		URL      string `json:"url"`
		AltText  string `json:"alt_text"`
		Position int    `json:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	img := models.ProductImage{
		ProductID: id,
		URL:       req.URL,
		AltText:   req.AltText,
		Position:  req.Position,
	}
	if err := h.DB.Create(&img).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *ProductHandler) DeleteImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.ProductImage{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
