package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/mykafka"
)

type PaymentHandler struct {
	DB            *gorm.DB
	Producer      *mykafka.Producer
	WebhookSecret []byte
}

func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	userID := authmw.UserID(c)

	var req struct {
		OrderID uint     `json:"order_id"`
		Method  string   `json:"method"`
		Amount  *float64 `json:"amount"`
		CardID  *uint    `json:"card_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == 0 || req.Method == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id and method are required")
	}

	var order models.Order
	if err := h.DB.First(&order, req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if order.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "order does not belong to you")
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		return echo.NewHTTPError(http.StatusBadRequest, "order is not awaiting payment")
	}

	// the charge amount is always the frozen order total
	if req.Amount != nil && *req.Amount != order.TotalPrice {
		return echo.NewHTTPError(http.StatusBadRequest, "amount does not match order total")
	}

	if req.CardID != nil {
		var card models.SavedPaymentCard
		if err := h.DB.First(&card, *req.CardID).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown card")
		}
		if card.UserID != userID {
			return echo.NewHTTPError(http.StatusForbidden, "card does not belong to you")
		}
	}

	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalPrice,
		Method:        req.Method,
		TransactionID: uuid.NewString(),
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := h.DB.Create(&payment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":          "payment_initiated",
		"userID":        userID,
		"orderID":       order.ID,
		"transactionID": payment.TransactionID,
	})

	return c.JSON(http.StatusCreated, payment)
}

// Webhook consumes the gateway's signed callback. The body is read raw so
// the HMAC covers exactly the bytes the gateway signed.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	sig := c.Request().Header.Get("X-Webhook-Signature")
	if !h.verifySignature(body, sig) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var payload struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}
	if payload.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing transaction_id")
	}

	var payment models.Payment
	if err := h.DB.Where("transaction_id = ?", payload.TransactionID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown transaction")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// only PENDING payments transition; a replayed or out-of-order callback
	// for a settled payment must not disturb its terminal state
	if payment.PaymentStatus != models.PaymentStatusPending {
		return c.JSON(http.StatusOK, echo.Map{"message": "already settled"})
	}

	switch payload.Status {
	case models.PaymentStatusSucceeded:
		txErr := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&payment).Update("payment_status", models.PaymentStatusSucceeded).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", payment.OrderID).
				Update("payment_status", models.PaymentStatusPaid).Error; err != nil {
				return err
			}
			// the checkout cart is done once its order is paid
			var order models.Order
			if err := tx.First(&order, payment.OrderID).Error; err != nil {
				return err
			}
			return tx.Model(&models.Cart{}).
				Where("user_id = ? AND status = ?", order.UserID, models.CartStatusCheckoutInProgress).
				Update("status", models.CartStatusCompleted).Error
		})
		if txErr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	case models.PaymentStatusFailed:
		if err := h.DB.Model(&payment).Update("payment_status", models.PaymentStatusFailed).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	publish(c, h.Producer, "order_events", payload.TransactionID, map[string]any{
		"type":          "payment_" + payload.Status,
		"transactionID": payload.TransactionID,
		"orderID":       payment.OrderID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

func (h *PaymentHandler) verifySignature(body []byte, header string) bool {
	if len(h.WebhookSecret) == 0 || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.WebhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

func (h *PaymentHandler) ListCards(c echo.Context) error {
	var cards []models.SavedPaymentCard
	if err := h.DB.Where("user_id = ?", authmw.UserID(c)).Order("id ASC").Find(&cards).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *PaymentHandler) SaveCard(c echo.Context) error {
	var req struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Brand == "" || len(req.Last4) != 4 {
		return echo.NewHTTPError(http.StatusBadRequest, "brand and last4 are required")
	}
	if req.ExpMonth < 1 || req.ExpMonth > 12 || req.ExpYear < 2000 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expiry")
	}

	card := models.SavedPaymentCard{
		UserID:   authmw.UserID(c),
		Brand:    req.Brand,
		Last4:    req.Last4,
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
	}
	if err := h.DB.Create(&card).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, card)
}

func (h *PaymentHandler) DeleteCard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var card models.SavedPaymentCard
	if err := h.DB.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "card not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if card.UserID != authmw.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "card does not belong to you")
	}

	if err := h.DB.Delete(&card).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
