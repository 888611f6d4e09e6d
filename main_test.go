package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/app"
	"github.com/trackadmission/go-services/internal/config"
	"github.com/trackadmission/go-services/pkg/middleware"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type rejectAll struct{}

func (rejectAll) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	return nil, errors.New("nope")
}

func testRouter(t *testing.T, db pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := app.New(context.Background(), &config.Config{MongoDB: config.MongoDBConfig{URI: "mongodb://localhost:1", Database: "test"}})
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return newRouter(a, routerDeps{
		verifier: rejectAll{},
		revoked:  a.Revocations,
		tokenTTL: time.Minute,
		db:       db,
		form:     middleware.RateLimitMiddleware("form-main-test", 100, 100),
	})
}

func TestHealth(t *testing.T) {
	r := testRouter(t, fakePinger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
}

func TestReadyReflectsDatabase(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		code   int
		status string
	}{
		{"up", nil, http.StatusOK, "ready"},
		{"down", errors.New("not connected"), http.StatusServiceUnavailable, "not_ready"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := testRouter(t, fakePinger{err: tc.err})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			require.Equal(t, tc.code, w.Code)

			var body struct {
				Status string          `json:"status"`
				Deps   map[string]bool `json:"deps"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Status)
			assert.Equal(t, tc.err == nil, body.Deps["mongodb"])
			_, hasRedis := body.Deps["redis"]
			assert.False(t, hasRedis)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := testRouter(t, fakePinger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/form", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter(t, fakePinger{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/seo/content"},
		{http.MethodGet, "/api/form"},
		{http.MethodGet, "/api/writers"},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/v1/me"},
		{http.MethodPost, "/api/v1/logout"},
		{http.MethodPost, "/api/categories"},
		{http.MethodPatch, "/api/writers/65a000000000000000000000"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestMetricsExposed(t *testing.T) {
	r := testRouter(t, fakePinger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
