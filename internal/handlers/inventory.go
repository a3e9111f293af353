package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/akozhevin/storefront/internal/middleware/auth"
	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/mykafka"
	"github.com/akozhevin/storefront/internal/util"
)

type InventoryHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type adjustmentEntry struct {
	ProductID       uint   `json:"product_id"`
	QuantityChanged int    `json:"quantity_changed"`
	ChangeType      string `json:"change_type"`
	Size            string `json:"size"`
	ColorHex        string `json:"color_hex"`
	Source          string `json:"source"`
	Reason          string `json:"reason"`
	Note            string `json:"note"`
	OrderID         *uint  `json:"order_id"`
	CartItemID      *uint  `json:"cart_item_id"`
}

// AdjustStock applies one or more signed stock deltas atomically. Every
// entry is validated up front against a single stock snapshot, with
// same-product entries accumulating against it; if any running total would
// go negative the whole batch is rejected before anything is written.
func (h *InventoryHandler) AdjustStock(c echo.Context) error {
	actorID := authmw.UserID(c)

	var req struct {
		Adjustments []adjustmentEntry `json:"adjustments"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Adjustments) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no adjustments supplied")
	}
	for _, a := range req.Adjustments {
		if a.ProductID == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
		}
		if a.QuantityChanged == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "quantity_changed must not be zero")
		}
		if a.ChangeType == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "change_type is required")
		}
	}

	logs := make([]models.InventoryLog, 0, len(req.Adjustments))

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		// snapshot current stock for every product in the batch
		stocks := map[uint]int{}
		for _, a := range req.Adjustments {
			if _, ok := stocks[a.ProductID]; ok {
				continue
			}
			var product models.Product
			if err := tx.First(&product, a.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusNotFound,
						fmt.Sprintf("product %d not found", a.ProductID))
				}
				return err
			}
			stocks[a.ProductID] = product.Stock
		}

		// validate the whole batch before touching anything
		running := map[uint]int{}
		for k, v := range stocks {
			running[k] = v
		}
		for _, a := range req.Adjustments {
			next := running[a.ProductID] + a.QuantityChanged
			if next < 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "negative resulting stock")
			}
			running[a.ProductID] = next
		}

		// apply: one stock update and one audit row per entry
		applied := map[uint]int{}
		for k, v := range stocks {
			applied[k] = v
		}
		for _, a := range req.Adjustments {
			previous := applied[a.ProductID]
			next := previous + a.QuantityChanged
			applied[a.ProductID] = next

			if err := tx.Model(&models.Product{}).
				Where("id = ?", a.ProductID).
				Update("stock", next).Error; err != nil {
				return err
			}

			entry := models.InventoryLog{
				ProductID:       a.ProductID,
				ChangeType:      a.ChangeType,
				QuantityChanged: a.QuantityChanged,
				Size:            a.Size,
				ColorHex:        a.ColorHex,
				PreviousStock:   previous,
				NewStock:        next,
				Source:          a.Source,
				Reason:          a.Reason,
				Note:            a.Note,
				ActorUserID:     actorID,
				OrderID:         a.OrderID,
				CartItemID:      a.CartItemID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			logs = append(logs, entry)
		}
		return nil
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "inventory_events", fmt.Sprint(actorID), map[string]any{
		"type":        "stock_adjusted",
		"actorUserID": actorID,
		"entries":     len(logs),
	})

	return c.JSON(http.StatusOK, echo.Map{"logs": logs})
}

func (h *InventoryHandler) ListLogs(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.InventoryLog{})
	if pid := c.QueryParam("product_id"); pid != "" {
		q = q.Where("product_id = ?", parseIntDefault(pid, 0))
	}
	if ct := c.QueryParam("change_type"); ct != "" {
		q = q.Where("change_type = ?", ct)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var logs []models.InventoryLog
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, util.NewPage(logs, page, limit, total))
}
