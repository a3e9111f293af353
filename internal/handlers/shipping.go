package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
)

type ShippingHandler struct {
	DB *gorm.DB
}

// UpsertShipping creates or replaces the single shipping record of an
// order; calling it twice with the same payload is a no-op.
func (h *ShippingHandler) UpsertShipping(c echo.Context) error {
	userID := authmw.UserID(c)
	orderID, err := pathID(c)
	if err != nil {
		return err
	}

	var req shippingPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.wellFormed() {
		return echo.NewHTTPError(http.StatusBadRequest, "name, address and city are required")
	}

	var order models.Order
	if err := h.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if order.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "order does not belong to you")
	}

	var sd models.ShippingDetails
	err = h.DB.Where("order_id = ?", orderID).First(&sd).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sd = models.ShippingDetails{OrderID: orderID, UserID: userID}
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	sd.Name = req.Name
	sd.Address = req.Address
	sd.City = req.City
	sd.Province = req.Province
	sd.PostalCode = req.PostalCode
	sd.PhoneNumber = req.PhoneNumber

	if err := h.DB.Save(&sd).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, sd)
}

func (h *ShippingHandler) GetShipping(c echo.Context) error {
	orderID, err := pathID(c)
	if err != nil {
		return err
	}

	var order models.Order
	if err := h.DB.First(&order, orderID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if order.UserID != authmw.UserID(c) && authmw.Role(c) != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "order does not belong to you")
	}

	var sd models.ShippingDetails
	if err := h.DB.Where("order_id = ?", orderID).First(&sd).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no shipping details")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, sd)
}

func (h *ShippingHandler) SetDeliveryStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		DeliveryStatus string `json:"delivery_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch req.DeliveryStatus {
	case models.DeliveryStatusProcessing, models.DeliveryStatusShipped, models.DeliveryStatusDelivered:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown delivery status")
	}

	res := h.DB.Model(&models.ShippingDetails{}).
		Where("id = ?", id).
		Update("delivery_status", req.DeliveryStatus)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "shipping details not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"id": id, "delivery_status": req.DeliveryStatus})
}
