package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/categories"
)

func TestCategoryRoutes(t *testing.T) {
	g := newEngine()
	RegisterCategoryRoutes(g, categories.NewService(categories.NewMemoryRepo(), nil), testAuth, testAdmin)

	body := `{"name":"Online MBA","slug":"online-mba","metadata":{"displayOrder":1}}`
	require.Equal(t, http.StatusUnauthorized, callJSON(g, http.MethodPost, "/api/categories", "", body).Code)
	require.Equal(t, http.StatusForbidden, callJSON(g, http.MethodPost, "/api/categories", "writer", body).Code)

	w := callJSON(g, http.MethodPost, "/api/categories", "admin", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Category categories.Category `json:"category"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Category.ID)
	require.NotNil(t, created.Category.Metadata.DisplayOrder)
	assert.Equal(t, 1, *created.Category.Metadata.DisplayOrder)

	w = callJSON(g, http.MethodPost, "/api/categories", "admin", body)
	require.Equal(t, http.StatusConflict, w.Code)

	w = callJSON(g, http.MethodPost, "/api/categories", "admin", `{"name":"x","slug":"Bad Slug"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"slug"`)

	w = callJSON(g, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Categories []categories.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Categories, 1)

	id := created.Category.ID
	w = callJSON(g, http.MethodPut, "/api/categories/"+id, "admin", `{"name":"Online MBA","slug":"online-mba","description":"Two years"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Two years")

	w = callJSON(g, http.MethodPut, "/api/categories/missing", "admin", body)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusForbidden, callJSON(g, http.MethodDelete, "/api/categories/"+id, "writer", "").Code)
	w = callJSON(g, http.MethodDelete, "/api/categories/"+id, "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Category deleted successfully"}`, w.Body.String())
	require.Equal(t, http.StatusNotFound, callJSON(g, http.MethodDelete, "/api/categories/"+id, "admin", "").Code)
}
