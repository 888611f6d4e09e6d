package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the content service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>trackadmission-content Swagger UI</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "trackadmission-content", "version": "v1.0.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } } },
  "paths": {
    "/api/seo/content": {
      "get": { "summary": "List posts", "parameters": [
        {"name":"page","in":"query","schema":{"type":"integer"}},
        {"name":"limit","in":"query","schema":{"type":"integer"}},
        {"name":"status","in":"query","schema":{"type":"string"}},
        {"name":"search","in":"query","schema":{"type":"string"}},
        {"name":"sortField","in":"query","schema":{"type":"string"}},
        {"name":"sortOrder","in":"query","schema":{"type":"string","enum":["asc","desc"]}}
      ], "responses": { "200": { "description": "contents and pagination" } } },
      "post": { "summary": "Create a post at version 1", "security": [{"bearer":[]}], "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" }, "409": { "description": "slug taken" } } }
    },
    "/api/seo/content/category": { "get": { "summary": "Published posts in a category", "responses": { "200": { "description": "contents and pagination" } } } },
    "/api/seo/content/stats": { "get": { "summary": "Count live posts", "security": [{"bearer":[]}], "responses": { "200": { "description": "total" } } } },
    "/api/seo/content/daily-activity": { "get": { "summary": "Posts created or updated today", "security": [{"bearer":[]}], "responses": { "200": { "description": "count" } } } },
    "/api/seo/content/slug/{slug}": { "get": { "summary": "Published post by slug", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } } },
    "/api/seo/content/{id}": {
      "get": { "summary": "Post by id", "security": [{"bearer":[]}], "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update non-versioned fields", "security": [{"bearer":[]}], "responses": { "200": { "description": "post" } } }
    },
    "/api/seo/content/{id}/soft-delete": { "patch": { "summary": "Soft-delete or restore (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" }, "403": { "description": "admin only" } } } },
    "/api/seo/content/{id}/versions": {
      "get": { "summary": "Version history", "security": [{"bearer":[]}], "responses": { "200": { "description": "currentVersion and versions" } } },
      "post": { "summary": "Append a version", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"content":{"type":"string"},"seo":{"type":"object"},"changelog":{"type":"string"}}}}}}, "responses": { "201": { "description": "new version" }, "400": { "description": "no changes detected" }, "409": { "description": "concurrent update" } } }
    },
    "/api/seo/search": { "get": { "summary": "Search published post titles", "responses": { "200": { "description": "results" } } } },
    "/api/seo/content/trending": {
      "get": { "summary": "Trending slots, highest position first", "responses": { "200": { "description": "entries" } } },
      "post": { "summary": "Add a trending entry (oldest beyond 4 evicted)", "security": [{"bearer":[]}], "responses": { "201": { "description": "created" } } },
      "put": { "summary": "Upsert a trending entry", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Remove a trending entry by trendingId", "security": [{"bearer":[]}], "responses": { "200": { "description": "removed" } } }
    },
    "/api/seo/content/trending/{id}": { "delete": { "summary": "Remove a trending entry", "security": [{"bearer":[]}], "responses": { "200": { "description": "removed" }, "404": { "description": "not found" } } } },
    "/api/form": {
      "post": { "summary": "Submit an admission enquiry", "responses": { "201": { "description": "stored" }, "400": { "description": "validation failed" }, "429": { "description": "rate limited" } } },
      "get": { "summary": "List enquiries (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "leads and pagination" } } }
    },
    "/api/form/{id}": { "patch": { "summary": "Change enquiry status (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" } } } },
    "/api/upload": { "post": { "summary": "Upload a media file", "security": [{"bearer":[]}], "responses": { "200": { "description": "media item" } } } },
    "/api/v1/me": { "get": { "summary": "Current user, recorded as a login", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" } } } },
    "/api/v1/logout": { "post": { "summary": "Revoke the caller's token", "security": [{"bearer":[]}], "responses": { "200": { "description": "logged out" } } } },
    "/api/writers": { "get": { "summary": "List writers (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "writers" } } } },
    "/api/writers/stats": { "get": { "summary": "Writer login stats (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "counts" } } } },
    "/api/writers/{id}": {
      "get": { "summary": "Public writer profile", "responses": { "200": { "description": "writer" }, "400": { "description": "invalid id" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update a writer profile (self or admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "writer" }, "403": { "description": "not the owner" } } }
    },
    "/api/authors/{slug}": { "get": { "summary": "Author page by first-last name with published posts", "responses": { "200": { "description": "author and articles" }, "400": { "description": "invalid slug" }, "404": { "description": "not found" } } } },
    "/api/categories": {
      "get": { "summary": "Categories by display order", "responses": { "200": { "description": "categories" } } },
      "post": { "summary": "Create a category (admin)", "security": [{"bearer":[]}], "responses": { "201": { "description": "category" }, "400": { "description": "validation failed" }, "409": { "description": "name or slug taken" } } }
    },
    "/api/categories/{id}": {
      "put": { "summary": "Replace a category (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "category" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a category (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/sitemap.xml": { "get": { "summary": "Sitemap of published posts", "responses": { "200": { "description": "urlset" } } } },
    "/api/writers/{id}/permit": { "patch": { "summary": "Allow or restrict a writer (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "writer" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
