package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/util"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID := authmw.UserID(c)

	var req struct {
		ProductID uint   `json:"product_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var existing models.Review
	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusConflict, "you already reviewed this product")
	}

	review := models.Review{
		UserID:    userID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListProductReviews(c echo.Context) error {
	productID, err := pathID(c)
	if err != nil {
		return err
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var reviews []models.Review
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(reviews, page, limit, total))
}

func (h *ReviewHandler) reviewForMutation(c echo.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "review not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if review.UserID != authmw.UserID(c) && authmw.Role(c) != models.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "review does not belong to you")
	}
	return &review, nil
}

func (h *ReviewHandler) PatchReview(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Rating  *int   `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.reviewForMutation(c, id)
	if err != nil {
		return err
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		}
		review.Rating = *req.Rating
	}
	if req.Comment != "" {
		review.Comment = req.Comment
	}

	if err := h.DB.Save(review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	review, err := h.reviewForMutation(c, id)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
