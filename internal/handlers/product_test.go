package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/util"
)

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB}

	_, c := env.doJSONRequest(http.MethodPost, "/api/products", map[string]any{
		"name": "table",
	})
	err := h.CreateProduct(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/products", map[string]any{
		"name": "table", "price": -1.0,
	})
	err = h.CreateProduct(c2)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestCreateProductJSONShapeValidation(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB}

	// color_variants entries must carry a hex value
	_, c := env.doJSONRequest(http.MethodPost, "/api/products", map[string]any{
		"name":           "sofa",
		"price":          499.0,
		"color_variants": []map[string]any{{"name": "moss"}},
	})
	err := h.CreateProduct(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	rec, c2 := env.doJSONRequest(http.MethodPost, "/api/products", map[string]any{
		"name":           "sofa",
		"price":          499.0,
		"stock":          3,
		"color_variants": []map[string]any{{"name": "moss", "hex": "#4a5d23"}},
		"dimensions":     map[string]any{"width_cm": 210.0, "height_cm": 85.0},
		"care_notes":     []string{"vacuum weekly"},
	})
	require.NoError(t, h.CreateProduct(c2))
	require.Equal(t, http.StatusCreated, rec.Code)

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, 3, prod.Stock)
}

func TestGetProductsPagination(t *testing.T) {
	env := newTestEnv(t)
	h := &ProductHandler{DB: env.DB}

	for i := 0; i < 25; i++ {
		env.createProduct(t, "item", 10, 5)
	}

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products?page=2&limit=10", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.Product `json:"items"`
		Meta  util.Meta        `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 10)
	require.Equal(t, int64(25), resp.Meta.Total)
	require.Equal(t, int64(3), resp.Meta.Pages)
	require.True(t, resp.Meta.HasNext)
	require.True(t, resp.Meta.HasPrev)
}

func TestGetProductWithImagesAndRating(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reviewer@example.com", models.RoleUser)
	product := env.createProduct(t, "shelf", 75, 2)
	h := &ProductHandler{DB: env.DB}

	require.NoError(t, env.DB.Create(&models.ProductImage{
		ProductID: product.ID, URL: "https://cdn.example.com/shelf.jpg",
	}).Error)
	require.NoError(t, env.DB.Create(&models.Review{
		UserID: user.ID, ProductID: product.ID, Rating: 4,
	}).Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Product     models.Product        `json:"product"`
		Images      []models.ProductImage `json:"images"`
		AvgRating   float64               `json:"avg_rating"`
		ReviewCount int64                 `json:"review_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Images, 1)
	require.Equal(t, 4.0, resp.AvgRating)
	require.Equal(t, int64(1), resp.ReviewCount)
}
