package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/sessions"
	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/middleware"
)

// RegisterLogoutRoute mounts POST /api/v1/logout, which revokes the caller's
// bearer token until it expires. fallback applies to tokens without exp.
func RegisterLogoutRoute(r gin.IRouter, store sessions.Store, auth gin.HandlerFunc, fallback time.Duration) {
	r.POST("/api/v1/logout", auth, func(c *gin.Context) {
		err := sessions.Logout(c.Request.Context(), store, middleware.RawToken(c), middleware.Claims(c), fallback)
		if err != nil {
			logger.Errorf("logout: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})
}
