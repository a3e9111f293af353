package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akozhevin/storefront/internal/models"
)

func TestCreateReviewDuplicate(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reviewer@example.com", models.RoleUser)
	product := env.createProduct(t, "book", 15, 10)
	h := &ReviewHandler{DB: env.DB}

	payload := map[string]any{"product_id": product.ID, "rating": 5, "comment": "great"}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/reviews", payload)
	asUser(c, user.ID, user.Role)
	require.NoError(t, h.CreateReview(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/reviews", payload)
	asUser(c2, user.ID, user.Role)
	err := h.CreateReview(c2)
	require.Equal(t, http.StatusConflict, httpStatus(t, err))
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reviewer@example.com", models.RoleUser)
	product := env.createProduct(t, "book", 15, 10)
	h := &ReviewHandler{DB: env.DB}

	_, c := env.doJSONRequest(http.MethodPost, "/api/reviews", map[string]any{
		"product_id": product.ID, "rating": 6,
	})
	asUser(c, user.ID, user.Role)
	err := h.CreateReview(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/reviews", map[string]any{
		"product_id": 9999, "rating": 4,
	})
	asUser(c2, user.ID, user.Role)
	err = h.CreateReview(c2)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestDeleteReviewOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com", models.RoleUser)
	other := env.createUser(t, "other@example.com", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	product := env.createProduct(t, "book", 15, 10)
	h := &ReviewHandler{DB: env.DB}

	review := models.Review{UserID: owner.ID, ProductID: product.ID, Rating: 4}
	require.NoError(t, env.DB.Create(&review).Error)

	_, c := env.doJSONRequest(http.MethodDelete, "/api/reviews/1", nil)
	asUser(c, other.ID, other.Role)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.DeleteReview(c)
	require.Equal(t, http.StatusForbidden, httpStatus(t, err))

	rec, c2 := env.doJSONRequest(http.MethodDelete, "/api/reviews/1", nil)
	asUser(c2, admin.ID, admin.Role)
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	require.NoError(t, h.DeleteReview(c2))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
