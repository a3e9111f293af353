package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akozhevin/storefront/internal/models"
)

func TestCreateCategoryDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	h := &CategoryHandler{DB: env.DB}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/categories", map[string]string{"name": "Chairs"})
	require.NoError(t, h.CreateCategory(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/categories", map[string]string{"name": "Chairs"})
	err := h.CreateCategory(c2)
	require.Equal(t, http.StatusConflict, httpStatus(t, err))
}

func TestDeleteCategoryWithProducts(t *testing.T) {
	env := newTestEnv(t)
	h := &CategoryHandler{DB: env.DB}

	cat := models.Category{Name: "Lamps"}
	require.NoError(t, env.DB.Create(&cat).Error)
	require.NoError(t, env.DB.Create(&models.Product{
		Name: "desk lamp", Description: "d", Price: 20, CategoryID: &cat.ID,
	}).Error)

	_, c := env.doJSONRequest(http.MethodDelete, "/api/categories/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.DeleteCategory(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}
