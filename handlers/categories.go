package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/apierr"
	"github.com/trackadmission/go-services/internal/categories"
)

type CategoriesService interface {
	List(ctx context.Context) ([]categories.Category, error)
	Create(ctx context.Context, in categories.Input) (*categories.Category, error)
	Update(ctx context.Context, id string, in categories.Input) (*categories.Category, error)
	Delete(ctx context.Context, id string) error
}

// RegisterCategoryRoutes mounts the category list. Reading is public; writes
// need auth followed by admin.
func RegisterCategoryRoutes(r gin.IRouter, svc CategoriesService, auth, admin gin.HandlerFunc) {
	g := r.Group("/api/categories")

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": list})
	})

	g.POST("", auth, admin, func(c *gin.Context) {
		var in categories.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		cat, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"category": cat})
	})

	g.PUT("/:id", auth, admin, func(c *gin.Context) {
		var in categories.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		cat, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"category": cat})
	})

	g.DELETE("/:id", auth, admin, func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	})
}
