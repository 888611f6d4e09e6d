package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/content/repository"
	"github.com/trackadmission/go-services/internal/content/service"
	"github.com/trackadmission/go-services/pkg/middleware"
)

type fakeToken map[string]interface{}

func (t fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	switch raw {
	case "writer":
		return fakeToken{"sub": "w1", "email": "w@example.com", "name": "Asha Rao", "role": "writer"}, nil
	case "admin":
		return fakeToken{"sub": "a1", "email": "a@example.com", "given_name": "Dev", "family_name": "Kumar", "role": "admin"}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func setup(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewService(repository.NewMemoryRepo())
	g := gin.New()
	RegisterContentRoutes(g, svc, fakeVerifier{})
	return g, svc
}

func do(g *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

const createBody = `{"data":{
	"title":"MBA admissions","description":"Guide","slug":"mba-admissions",
	"content":"<h2>Intro</h2><p>Apply early</p>","status":"published",
	"seo":{"title":"MBA admissions","description":"How to apply","focusKeywords":[" mba "]},
	"author":{"email":"w@example.com","firstName":"Asha","lastName":"Rao"},
	"categories":["Management Studies"]}}`

func createPost(t *testing.T, g *gin.Engine) content.Document {
	t.Helper()
	w := do(g, http.MethodPost, "/api/seo/content", "writer", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc content.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc
}

func TestCreateAndRead(t *testing.T) {
	g, _ := setup(t)

	w := do(g, http.MethodPost, "/api/seo/content", "", createBody)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	doc := createPost(t, g)
	assert.Equal(t, 1, doc.CurrentVersion)
	assert.Equal(t, []string{"mba"}, doc.SEO.FocusKeywords)

	w = do(g, http.MethodPost, "/api/seo/content", "writer", createBody)
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(g, http.MethodGet, "/api/seo/content/"+doc.ID, "writer", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/api/seo/content/slug/mba-admissions", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/api/seo/content/slug/unknown", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidationDetails(t *testing.T) {
	g, _ := setup(t)
	w := do(g, http.MethodPost, "/api/seo/content", "writer", `{"data":{"slug":"Bad Slug"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Details)

	w = do(g, http.MethodPost, "/api/seo/content", "writer", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVersionsEndpoints(t *testing.T) {
	g, _ := setup(t)
	doc := createPost(t, g)
	path := "/api/seo/content/" + doc.ID + "/versions"

	same := fmt.Sprintf(`{"content":%q,"changelog":"noop"}`, doc.Content+"\r\n")
	w := do(g, http.MethodPost, path, "writer", same)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPost, path, "writer", `{"content":"<p>Apply now</p>","changelog":"rewrite"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var v content.Version
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, 2, v.Version)
	assert.Equal(t, content.Author{Email: "w@example.com", FirstName: "Asha", LastName: "Rao"}, v.Author)

	w = do(g, http.MethodGet, path, "writer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var h content.History
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, 2, h.CurrentVersion)
	assert.Len(t, h.Versions, 2)

	w = do(g, http.MethodPost, "/api/seo/content/missing/versions", "writer", `{"content":"x","changelog":"y"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSoftDeleteRequiresAdmin(t *testing.T) {
	g, _ := setup(t)
	doc := createPost(t, g)
	path := "/api/seo/content/" + doc.ID + "/soft-delete"

	w := do(g, http.MethodPatch, path, "writer", `{"isDeleted":true}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(g, http.MethodPatch, path, "admin", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPatch, path, "admin", `{"isDeleted":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/api/seo/content/slug/mba-admissions", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCategorySearchAndStats(t *testing.T) {
	g, _ := setup(t)
	createPost(t, g)

	w := do(g, http.MethodGet, "/api/seo/content?status=all&search=MBA", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list service.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Contents, 1)
	assert.Equal(t, int64(1), list.Pagination.Total)
	assert.Equal(t, 6, list.Pagination.Limit)

	w = do(g, http.MethodGet, "/api/seo/content/category?category=management-studies", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Contents, 1)

	w = do(g, http.MethodGet, "/api/seo/content/category", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodGet, "/api/seo/search?q=mba", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hits struct {
		Results []content.SearchHit `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits.Results, 1)
	assert.Equal(t, "mba-admissions", hits.Results[0].Slug)

	w = do(g, http.MethodGet, "/api/seo/content/stats", "writer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":1}`, w.Body.String())

	w = do(g, http.MethodGet, "/api/seo/content/daily-activity", "writer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())
}

func TestUpdateMeta(t *testing.T) {
	g, _ := setup(t)
	doc := createPost(t, g)

	w := do(g, http.MethodPut, "/api/seo/content/"+doc.ID, "writer", `{"data":{"title":"MBA intake 2026","score":80}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got content.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "MBA intake 2026", got.Title)
	assert.Equal(t, 80, got.Score)
	assert.Equal(t, 1, got.CurrentVersion)

	w = do(g, http.MethodPut, "/api/seo/content/"+doc.ID, "writer", `{"data":{}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorFromClaims(t *testing.T) {
	a, ok := authorFromClaims(map[string]interface{}{"email": "x@y.z", "name": "Solo"})
	require.True(t, ok)
	assert.Equal(t, content.Author{Email: "x@y.z", FirstName: "Solo"}, a)

	_, ok = authorFromClaims(map[string]interface{}{"name": "No Email"})
	assert.False(t, ok)
}
