package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

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
		return fakeToken{"sub": "a1", "email": "a@example.com", "realm_access": map[string]interface{}{"roles": []interface{}{"admin"}}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

var (
	testAuth  = middleware.AuthMiddleware(fakeVerifier{})
	testAdmin = middleware.RequireRole("admin")
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func call(g *gin.Engine, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func callJSON(g *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return call(g, method, path, token, r, "application/json")
}
