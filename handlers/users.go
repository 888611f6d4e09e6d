package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/apierr"
	"github.com/trackadmission/go-services/internal/content"
	contentsvc "github.com/trackadmission/go-services/internal/content/service"
	"github.com/trackadmission/go-services/internal/models"
	"github.com/trackadmission/go-services/internal/users"
	"github.com/trackadmission/go-services/pkg/middleware"
)

type UsersService interface {
	UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error)
	Writers(ctx context.Context, sortField string, asc bool) ([]models.User, error)
	SetPermit(ctx context.Context, id string, p models.Permit) (*models.User, error)
	WriterStats(ctx context.Context) (users.Stats, error)
}

// RegisterUserRoutes mounts the caller profile and the admin writer directory.
func RegisterUserRoutes(r gin.IRouter, svc UsersService, auth, admin gin.HandlerFunc) {
	// each call records a login, so the dashboard hits this once per session
	r.GET("/api/v1/me", auth, func(c *gin.Context) {
		u, err := svc.UpsertFromClaims(c.Request.Context(), middleware.Claims(c))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	w := r.Group("/api/writers", auth, admin)
	w.GET("", func(c *gin.Context) {
		list, err := svc.Writers(c.Request.Context(), c.Query("sortField"), c.Query("sortOrder") == "asc")
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})
	w.GET("/stats", func(c *gin.Context) {
		s, err := svc.WriterStats(c.Request.Context())
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})
	w.PATCH("/:id/permit", func(c *gin.Context) {
		var req struct {
			Permit models.Permit `json:"permit"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "permit is required"})
			return
		}
		u, err := svc.SetPermit(c.Request.Context(), c.Param("id"), req.Permit)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})
}

type ProfilesService interface {
	Writer(ctx context.Context, id string) (*users.WriterView, error)
	UpdateProfile(ctx context.Context, claims map[string]interface{}, id string, p models.Profile) (*users.WriterView, error)
	Author(ctx context.Context, slug string) (*models.User, error)
}

// PostLister supplies an author's published posts.
type PostLister interface {
	List(ctx context.Context, q content.ListQuery) (*contentsvc.ListResult, error)
}

type authorArticle struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Slug        string         `json:"slug"`
	HeaderImage *content.Media `json:"headerImage,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	ReadingTime int            `json:"readingTime"`
}

// RegisterProfileRoutes mounts the public author page, the writer profile and
// its self-or-admin update.
func RegisterProfileRoutes(r gin.IRouter, svc ProfilesService, posts PostLister, auth gin.HandlerFunc) {
	r.GET("/api/authors/:slug", func(c *gin.Context) {
		u, err := svc.Author(c.Request.Context(), c.Param("slug"))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		res, err := posts.List(c.Request.Context(), content.ListQuery{
			AuthorEmail:   u.Email,
			PublishedOnly: true,
			SortField:     "createdAt",
			Limit:         100,
		})
		if err != nil {
			apierr.Write(c, err)
			return
		}
		articles := make([]authorArticle, 0, len(res.Contents))
		for _, d := range res.Contents {
			articles = append(articles, authorArticle{
				ID:          d.ID,
				Title:       d.Title,
				Description: d.Description,
				Slug:        d.Slug,
				HeaderImage: d.HeaderImage,
				CreatedAt:   d.CreatedAt,
				ReadingTime: d.ReadingTime,
			})
		}
		c.Header("Cache-Control", "public, s-maxage=3600, stale-while-revalidate=86400")
		c.JSON(http.StatusOK, gin.H{
			"author": gin.H{
				"id":            u.ID,
				"firstName":     u.FirstName,
				"lastName":      u.LastName,
				"email":         u.Email,
				"description":   u.Description,
				"designation":   u.Designation,
				"profileImage":  u.ProfileImage,
				"socials":       u.Socials,
				"articles":      articles,
				"articlesCount": res.Pagination.Total,
			},
			"articles": articles,
		})
	})

	r.GET("/api/writers/:id", func(c *gin.Context) {
		w, err := svc.Writer(c.Request.Context(), c.Param("id"))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "writer": w})
	})

	r.PATCH("/api/writers/:id", auth, func(c *gin.Context) {
		var p models.Profile
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
			return
		}
		w, err := svc.UpdateProfile(c.Request.Context(), middleware.Claims(c), c.Param("id"), p)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Writer profile updated successfully", "writer": w})
	})
}
