package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchWithoutElasticsearch(t *testing.T) {
	env := newTestEnv(t)
	h := &SearchHandler{ES: nil, Index: "products"}

	_, c := env.doJSONRequest(http.MethodGet, "/api/search?q=chair", nil)
	err := h.Search(c)
	require.Equal(t, http.StatusServiceUnavailable, httpStatus(t, err))
}
