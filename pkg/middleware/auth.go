package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

var errNoBearer = errors.New("invalid Authorization header")

func bearer(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", errNoBearer
	}
	return token, nil
}

func verifyClaims(ctx context.Context, ver Verifier, raw string) (map[string]interface{}, error) {
	tok, err := ver.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the
// provided verifier and stores the claims map under "claims".
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		raw, err := bearer(auth)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		claims, err := verifyClaims(c.Request.Context(), ver, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}
		c.Set("claims", claims)
		c.Set("rawToken", raw)
		c.Next()
	}
}

// RawToken returns the bearer token accepted by AuthMiddleware.
func RawToken(c *gin.Context) string { return c.GetString("rawToken") }

// OptionalAuth stores claims when a valid Bearer token is present and lets
// anonymous requests through. Rate limiters then key by subject instead of IP.
func OptionalAuth(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := bearer(c.GetHeader("Authorization")); err == nil {
			if claims, err := verifyClaims(c.Request.Context(), ver, raw); err == nil {
				c.Set("claims", claims)
			}
		}
		c.Next()
	}
}
