package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/apierr"
	"github.com/trackadmission/go-services/internal/trending"
)

// TrendingService is the slot manager used by the trending endpoints.
type TrendingService interface {
	SetSlot(ctx context.Context, blogID string, position int) (*trending.Entry, error)
	Update(ctx context.Context, id, blogID string, position int) (*trending.Entry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]trending.View, error)
}

// RegisterTrendingRoutes mounts /api/seo/content/trending. Listing is public;
// changes go through auth.
func RegisterTrendingRoutes(r gin.IRouter, svc TrendingService, auth gin.HandlerFunc) {
	g := r.Group("/api/seo/content/trending")

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.POST("", auth, func(c *gin.Context) {
		var req struct {
			BlogID   string `json:"blogId"`
			Position *int   `json:"position"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.BlogID == "" || req.Position == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blogId and position are required"})
			return
		}
		e, err := svc.SetSlot(c.Request.Context(), req.BlogID, *req.Position)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	})

	g.PUT("", auth, func(c *gin.Context) {
		var req struct {
			BlogID     string `json:"blogId"`
			TrendingID string `json:"trendingId"`
			Position   *int   `json:"position"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Position == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blogId, trendingId and position are required"})
			return
		}
		e, err := svc.Update(c.Request.Context(), req.TrendingID, req.BlogID, *req.Position)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	})

	remove := func(c *gin.Context, id string) {
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "trending entry removed", "id": id})
	}
	g.DELETE("", auth, func(c *gin.Context) {
		var req struct {
			TrendingID string `json:"trendingId"`
		}
		_ = c.ShouldBindJSON(&req)
		remove(c, req.TrendingID)
	})
	g.DELETE("/:id", auth, func(c *gin.Context) { remove(c, c.Param("id")) })
}
