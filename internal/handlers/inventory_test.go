package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akozhevin/storefront/internal/models"
)

func TestAdjustStockRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	product := env.createProduct(t, "product C", 10, 3)
	h := &InventoryHandler{DB: env.DB}

	_, c := env.doJSONRequest(http.MethodPost, "/api/inventory-adjustments", map[string]any{
		"adjustments": []map[string]any{
			{"product_id": product.ID, "quantity_changed": -5, "change_type": "SALE"},
		},
	})
	asUser(c, admin.ID, admin.Role)
	err := h.AdjustStock(c)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	var got models.Product
	require.NoError(t, env.DB.First(&got, product.ID).Error)
	require.Equal(t, 3, got.Stock)

	var logCount int64
	env.DB.Model(&models.InventoryLog{}).Count(&logCount)
	require.Equal(t, int64(0), logCount)
}

func TestAdjustStockBatchAtomic(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	prodA := env.createProduct(t, "A", 10, 10)
	prodB := env.createProduct(t, "B", 10, 1)
	h := &InventoryHandler{DB: env.DB}

	// second entry would go negative: whole batch must be rejected
	_, c := env.doJSONRequest(http.MethodPost, "/api/inventory-adjustments", map[string]any{
		"adjustments": []map[string]any{
			{"product_id": prodA.ID, "quantity_changed": -4, "change_type": "SALE"},
			{"product_id": prodB.ID, "quantity_changed": -2, "change_type": "SALE"},
		},
	})
	asUser(c, admin.ID, admin.Role)
	err := h.AdjustStock(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	var a, b models.Product
	require.NoError(t, env.DB.First(&a, prodA.ID).Error)
	require.NoError(t, env.DB.First(&b, prodB.ID).Error)
	require.Equal(t, 10, a.Stock)
	require.Equal(t, 1, b.Stock)
}

func TestAdjustStockWritesAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	product := env.createProduct(t, "widget", 10, 5)
	h := &InventoryHandler{DB: env.DB}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/inventory-adjustments", map[string]any{
		"adjustments": []map[string]any{
			{"product_id": product.ID, "quantity_changed": 7, "change_type": "RESTOCK", "reason": "supplier delivery"},
			{"product_id": product.ID, "quantity_changed": -2, "change_type": "DAMAGE", "note": "broken in transit"},
		},
	})
	asUser(c, admin.ID, admin.Role)
	require.NoError(t, h.AdjustStock(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, env.DB.First(&got, product.ID).Error)
	require.Equal(t, 10, got.Stock)

	var logs []models.InventoryLog
	require.NoError(t, env.DB.Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)

	require.Equal(t, 5, logs[0].PreviousStock)
	require.Equal(t, 12, logs[0].NewStock)
	require.Equal(t, admin.ID, logs[0].ActorUserID)
	require.Equal(t, "RESTOCK", logs[0].ChangeType)

	// second entry continues from the first one's result
	require.Equal(t, 12, logs[1].PreviousStock)
	require.Equal(t, 10, logs[1].NewStock)

	for _, l := range logs {
		require.Equal(t, l.PreviousStock+l.QuantityChanged, l.NewStock)
		require.GreaterOrEqual(t, l.NewStock, 0)
	}
}

func TestAdjustStockSameProductAccumulates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	product := env.createProduct(t, "widget", 10, 3)
	h := &InventoryHandler{DB: env.DB}

	// -2 then -2 against a snapshot of 3 accumulates to -4: reject
	_, c := env.doJSONRequest(http.MethodPost, "/api/inventory-adjustments", map[string]any{
		"adjustments": []map[string]any{
			{"product_id": product.ID, "quantity_changed": -2, "change_type": "SALE"},
			{"product_id": product.ID, "quantity_changed": -2, "change_type": "SALE"},
		},
	})
	asUser(c, admin.ID, admin.Role)
	err := h.AdjustStock(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	var got models.Product
	require.NoError(t, env.DB.First(&got, product.ID).Error)
	require.Equal(t, 3, got.Stock)
}

func TestListInventoryLogs(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	product := env.createProduct(t, "widget", 10, 5)
	h := &InventoryHandler{DB: env.DB}

	require.NoError(t, env.DB.Create(&models.InventoryLog{
		ProductID: product.ID, ChangeType: "RESTOCK", QuantityChanged: 5,
		PreviousStock: 0, NewStock: 5, ActorUserID: admin.ID,
	}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/inventory-logs?product_id=1", nil)
	asUser(c, admin.ID, admin.Role)
	require.NoError(t, h.ListLogs(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.InventoryLog `json:"items"`
		Meta  struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Meta.Total)
	require.Len(t, resp.Items, 1)
}
