package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/mykafka"
	"github.com/akozhevin/storefront/internal/util"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type shippingPayload struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	PhoneNumber string `json:"phone_number"`
}

func (s *shippingPayload) wellFormed() bool {
	return strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.City) != ""
}

// CreateOrder converts the caller's ACTIVE cart into an order inside one
// transaction: load lines with current prices, compute the total, snapshot
// each line, optionally store shipping, and flip the cart to
// CHECKOUT_IN_PROGRESS so no mutation can race past this point.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID := authmw.UserID(c)

	var req struct {
		Shipping *shippingPayload `json:"shipping"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
			First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "no active cart")
			}
			return err
		}

		type line struct {
			models.CartItem
			Price float64
		}
		var lines []line
		if err := tx.Model(&models.CartItem{}).
			Select("cart_items.*, products.price AS price").
			Joins("JOIN products ON products.id = cart_items.product_id").
			Where("cart_items.cart_id = ?", cart.ID).
			Scan(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
		}

		var total float64
		for _, l := range lines {
			total += float64(l.Quantity) * l.Price
		}

		order = models.Order{
			UserID:        userID,
			TotalPrice:    total,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		orderItems = make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     l.Price,
				Size:      l.Size,
				ColorHex:  l.ColorHex,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			orderItems = append(orderItems, oi)
		}

		if req.Shipping != nil && req.Shipping.wellFormed() {
			sd := models.ShippingDetails{
				OrderID:     order.ID,
				UserID:      userID,
				Name:        strings.TrimSpace(req.Shipping.Name),
				Address:     strings.TrimSpace(req.Shipping.Address),
				City:        strings.TrimSpace(req.Shipping.City),
				Province:    req.Shipping.Province,
				PostalCode:  req.Shipping.PostalCode,
				PhoneNumber: req.Shipping.PhoneNumber,
			}
			if err := tx.Create(&sd).Error; err != nil {
				return err
			}
		}

		return tx.Model(&cart).Update("status", models.CartStatusCheckoutInProgress).Error
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.TotalPrice,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"order": order,
		"items": orderItems,
	})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID := authmw.UserID(c)
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(orders, page, limit, total))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if order.UserID != authmw.UserID(c) && authmw.Role(c) != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "order does not belong to you")
	}

	var items []models.OrderItem
	if err := h.DB.Where("order_id = ?", id).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var shipping *models.ShippingDetails
	var sd models.ShippingDetails
	if err := h.DB.Where("order_id = ?", id).First(&sd).Error; err == nil {
		shipping = &sd
	}

	var payment *models.Payment
	var p models.Payment
	if err := h.DB.Where("order_id = ?", id).Order("created_at DESC").First(&p).Error; err == nil {
		payment = &p
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order":    order,
		"items":    items,
		"shipping": shipping,
		"payment":  payment,
	})
}

func (h *OrderHandler) AdminListOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Order{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("payment_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(orders, page, limit, total))
}

func (h *OrderHandler) AdminSetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch req.PaymentStatus {
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusFailed:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment status")
	}

	res := h.DB.Model(&models.Order{}).Where("id = ?", id).Update("payment_status", req.PaymentStatus)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": id, "payment_status": req.PaymentStatus})
}
