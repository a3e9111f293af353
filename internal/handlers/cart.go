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
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type cartLine struct {
	models.CartItem
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	ImageURL     string  `json:"image_url"`
	LineTotal    float64 `json:"line_total"`
}

// getOrCreateActiveCart is a single atomic upsert against the partial
// unique index on (user_id) WHERE status='ACTIVE'. A concurrent create
// loses the race on the index and picks up the winner's row on retry.
func getOrCreateActiveCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where(models.Cart{UserID: userID, Status: models.CartStatusActive}).
		FirstOrCreate(&cart).Error
	if err != nil {
		err = db.Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
			First(&cart).Error
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (h *CartHandler) loadLines(cartID uint) ([]cartLine, float64, error) {
	var lines []cartLine
	err := h.DB.Model(&models.CartItem{}).
		Select("cart_items.*, products.name AS product_name, products.price AS product_price, products.image_url, cart_items.quantity * products.price AS line_total").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, 0, err
	}
	var subtotal float64
	for _, l := range lines {
		subtotal += l.LineTotal
	}
	return lines, subtotal, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID := authmw.UserID(c)

	cart, err := getOrCreateActiveCart(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	lines, subtotal, err := h.loadLines(cart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cart":     cart,
		"items":    lines,
		"subtotal": subtotal,
	})
}

func (h *CartHandler) AddCartItem(c echo.Context) error {
	userID := authmw.UserID(c)

	var req struct {
		ProductID uint   `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		ColorHex  string `json:"color_hex"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	cart, err := getOrCreateActiveCart(h.DB, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var item models.CartItem
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}

		err := tx.Where("cart_id = ? AND product_id = ? AND size = ? AND color_hex = ?",
			cart.ID, req.ProductID, req.Size, req.ColorHex).First(&item).Error
		existing := 0
		if err == nil {
			existing = item.Quantity
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// soft reservation: checked here, decremented only by the
		// inventory path at fulfilment
		if existing+req.Quantity > product.Stock {
			return echo.NewHTTPError(http.StatusBadRequest, "exceeds available stock")
		}

		if existing > 0 {
			item.Quantity += req.Quantity
			return tx.Save(&item).Error
		}
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Size:      req.Size,
			ColorHex:  req.ColorHex,
		}
		return tx.Create(&item).Error
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"cartID":    cart.ID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

// itemForMutation loads a cart item and enforces both guards every cart
// mutation shares: the parent cart must belong to the caller and must
// still be ACTIVE.
func (h *CartHandler) itemForMutation(c echo.Context, itemID, userID uint) (*models.CartItem, *models.Cart, error) {
	var item models.CartItem
	if err := h.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var cart models.Cart
	if err := h.DB.First(&cart, item.CartID).Error; err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if cart.UserID != userID {
		return nil, nil, echo.NewHTTPError(http.StatusForbidden, "cart does not belong to you")
	}
	if cart.Status != models.CartStatusActive {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Cannot modify items on a non-ACTIVE cart")
	}
	return &item, &cart, nil
}

func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	userID := authmw.UserID(c)
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	}

	item, _, err := h.itemForMutation(c, id, userID)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, item.ProductID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if req.Quantity > product.Stock {
		return echo.NewHTTPError(http.StatusBadRequest, "exceeds available stock")
	}

	item.Quantity = req.Quantity
	if err := h.DB.Save(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":     "cart_item_updated",
		"userID":   userID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) DeleteCartItem(c echo.Context) error {
	userID := authmw.UserID(c)
	id, err := pathID(c)
	if err != nil {
		return err
	}

	item, _, err := h.itemForMutation(c, id, userID)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":   "cart_item_deleted",
		"userID": userID,
		"itemID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"deleted_item": id})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID := authmw.UserID(c)

	var cart models.Cart
	err := h.DB.Where("user_id = ? AND status = ?", userID, models.CartStatusActive).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "no active cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
		"cartID": cart.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"cart_id": cart.ID, "items": []models.CartItem{}})
}
