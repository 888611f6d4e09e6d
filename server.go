package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/trackadmission/go-services/handlers"
	"github.com/trackadmission/go-services/internal/app"
	contenthandler "github.com/trackadmission/go-services/internal/content/handler"
	"github.com/trackadmission/go-services/internal/sessions"
	"github.com/trackadmission/go-services/pkg/middleware"
)

var startTime = time.Now()

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	verifier middleware.Verifier
	revoked  sessions.Store
	tokenTTL time.Duration
	uploader handlers.MediaUploader // nil when object storage is not configured
	db       pinger
	redis    *redis.Client
	global   gin.HandlerFunc // nil when rate limiting is off
	form     gin.HandlerFunc
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func newRouter(a *app.App, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())
	if d.global != nil {
		r.Use(d.global)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readyHandler(d.db, d.redis))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	auth := middleware.AuthMiddleware(d.verifier)
	admin := middleware.RequireRole("admin")

	contenthandler.RegisterContentRoutes(r, a.Content, d.verifier)
	handlers.RegisterTrendingRoutes(r, a.Trending, auth)
	handlers.RegisterLeadRoutes(r, a.Leads, d.form, auth, admin)
	handlers.RegisterUserRoutes(r, a.Users, auth, admin)
	handlers.RegisterProfileRoutes(r, a.Users, a.Content, auth)
	handlers.RegisterCategoryRoutes(r, a.Categories, auth, admin)
	handlers.RegisterSitemapRoute(r, a.Content, a.Config.Site.URL)
	handlers.RegisterLogoutRoute(r, d.revoked, auth, d.tokenTTL)
	if d.uploader != nil {
		handlers.RegisterUploadRoutes(r, d.uploader, auth)
	} else {
		r.POST("/api/upload", auth, func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage is not configured"})
		})
	}
	return r
}

// readyHandler answers 200 only while the database answers a ping. Redis is
// reported but optional.
func readyHandler(db pinger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps := map[string]bool{}
		ready := true
		if err := db.Ping(ctx); err != nil {
			deps["mongodb"] = false
			ready = false
		} else {
			deps["mongodb"] = true
		}
		if rdb != nil {
			deps["redis"] = rdb.Ping(ctx).Err() == nil
		}

		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
