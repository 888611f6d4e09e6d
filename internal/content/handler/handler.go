package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/apierr"
	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/content/service"
	"github.com/trackadmission/go-services/pkg/middleware"
)

// Service is the subset of the content service the HTTP layer uses.
type Service interface {
	Create(ctx context.Context, d content.Draft) (*content.Document, error)
	Get(ctx context.Context, id string) (*content.Document, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*content.Document, error)
	List(ctx context.Context, q content.ListQuery) (*service.ListResult, error)
	Search(ctx context.Context, term string, limit int) ([]content.SearchHit, error)
	Total(ctx context.Context) (int64, error)
	DailyActivity(ctx context.Context) (int64, error)
	History(ctx context.Context, id string) (*content.History, error)
	AppendVersion(ctx context.Context, id string, in service.AppendInput) (*content.Version, error)
	UpdateMeta(ctx context.Context, id string, u content.MetaUpdate) (*content.Document, error)
	SetDeleted(ctx context.Context, id string, deleted bool) (*content.Document, error)
}

// RegisterContentRoutes mounts the post endpoints under /api/seo. Reads of
// published posts are public; writes need a verified token, and soft delete
// needs the admin role.
func RegisterContentRoutes(r gin.IRouter, svc Service, ver middleware.Verifier) {
	auth := middleware.AuthMiddleware(ver)
	admin := middleware.RequireRole("admin")

	r.GET("/api/seo/search", searchHandler(svc))

	g := r.Group("/api/seo/content")
	g.GET("", listHandler(svc))
	g.POST("", auth, createHandler(svc))
	g.GET("/category", categoryHandler(svc))
	g.GET("/stats", auth, func(c *gin.Context) {
		n, err := svc.Total(c.Request.Context())
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": n})
	})
	g.GET("/daily-activity", auth, func(c *gin.Context) {
		n, err := svc.DailyActivity(c.Request.Context())
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	})
	g.GET("/slug/:slug", func(c *gin.Context) {
		doc, err := svc.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	})
	g.GET("/:id", auth, func(c *gin.Context) {
		doc, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	})
	g.PUT("/:id", auth, updateHandler(svc))
	g.PATCH("/:id/soft-delete", auth, admin, softDeleteHandler(svc))
	g.GET("/:id/versions", auth, func(c *gin.Context) {
		h, err := svc.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, h)
	})
	g.POST("/:id/versions", auth, appendHandler(svc))
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func listHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := content.ListQuery{
			Page:      intQuery(c, "page", 1),
			Limit:     intQuery(c, "limit", 6),
			Search:    strings.TrimSpace(c.Query("search")),
			SortField: c.Query("sortField"),
			SortAsc:   c.Query("sortOrder") == "asc",
		}
		if st := c.Query("status"); st != "" && st != "all" {
			q.Status = content.Status(st)
		}
		res, err := svc.List(c.Request.Context(), q)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func categoryHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := strings.TrimSpace(c.Query("category"))
		if category == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category parameter is required"})
			return
		}
		res, err := svc.List(c.Request.Context(), content.ListQuery{
			Page:          intQuery(c, "page", 1),
			Limit:         intQuery(c, "limit", 6),
			Category:      category,
			PublishedOnly: true,
			SortField:     c.Query("sortField"),
			SortAsc:       c.Query("sortOrder") == "asc",
		})
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.JSON(http.StatusOK, res)
	}
}

func searchHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		hits, err := svc.Search(c.Request.Context(), c.Query("q"), intQuery(c, "limit", 10))
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": hits})
	}
}

func createHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Data *content.Draft `json:"data"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request data"})
			return
		}
		doc, err := svc.Create(c.Request.Context(), *req.Data)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

func updateHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Data *content.MetaUpdate `json:"data"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request data"})
			return
		}
		doc, err := svc.UpdateMeta(c.Request.Context(), c.Param("id"), *req.Data)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

func softDeleteHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IsDeleted *bool `json:"isDeleted"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.IsDeleted == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "isDeleted is required"})
			return
		}
		doc, err := svc.SetDeleted(c.Request.Context(), c.Param("id"), *req.IsDeleted)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": doc.ID, "isDeleted": doc.IsDeleted})
	}
}

func appendHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Content   string       `json:"content"`
			SEO       *content.SEO `json:"seo"`
			Changelog string       `json:"changelog"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		author, ok := authorFromClaims(middleware.Claims(c))
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token carries no email"})
			return
		}
		v, err := svc.AppendVersion(c.Request.Context(), c.Param("id"), service.AppendInput{
			Content:   req.Content,
			SEO:       req.SEO,
			Changelog: req.Changelog,
			Author:    author,
		})
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// authorFromClaims builds the version author from OIDC claims, falling back
// to splitting "name" when given/family names are absent.
func authorFromClaims(claims map[string]interface{}) (content.Author, bool) {
	email := middleware.ClaimString(claims, "email")
	if email == "" {
		return content.Author{}, false
	}
	a := content.Author{
		Email:     email,
		FirstName: middleware.ClaimString(claims, "given_name"),
		LastName:  middleware.ClaimString(claims, "family_name"),
	}
	if a.FirstName == "" && a.LastName == "" {
		parts := strings.Fields(middleware.ClaimString(claims, "name"))
		if len(parts) > 0 {
			a.FirstName = parts[0]
		}
		if len(parts) > 1 {
			a.LastName = parts[1]
		}
	}
	return a, true
}
