package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Claims returns the verified claims stored by AuthMiddleware, or nil.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// ClaimString returns a string claim or "".
func ClaimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// Roles collects the role names carried by claims: a plain "role" claim and
// Keycloak's realm_access.roles.
func Roles(claims map[string]interface{}) []string {
	var out []string
	if r := ClaimString(claims, "role"); r != "" {
		out = append(out, r)
	}
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		if list, ok := ra["roles"].([]interface{}); ok {
			for _, r := range list {
				if s, ok := r.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// HasRole reports whether claims carry role (case-insensitive).
func HasRole(claims map[string]interface{}, role string) bool {
	for _, r := range Roles(claims) {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// RequireRole rejects requests whose claims hold none of roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, r := range roles {
			if HasRole(claims, r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: " + strings.Join(roles, " or ") + " access required"})
	}
}
