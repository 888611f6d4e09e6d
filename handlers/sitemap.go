package handlers

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/pkg/logger"
)

type SitemapSource interface {
	Sitemap(ctx context.Context) ([]content.SitemapEntry, error)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// RegisterSitemapRoute serves /sitemap.xml: the site root followed by every
// published post under baseURL. The document is built on each request.
func RegisterSitemapRoute(r gin.IRouter, src SitemapSource, baseURL string) {
	baseURL = strings.TrimRight(baseURL, "/")
	r.GET("/sitemap.xml", func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, must-revalidate")
		entries, err := src.Sitemap(c.Request.Context())
		if err != nil {
			logger.Errorf("sitemap: %v", err)
			c.String(http.StatusInternalServerError, "Error generating sitemap")
			return
		}
		now := time.Now().UTC().Format(time.RFC3339)
		set := urlSet{
			NS:   "http://www.sitemaps.org/schemas/sitemap/0.9",
			URLs: []sitemapURL{{Loc: baseURL, LastMod: now, ChangeFreq: "daily", Priority: "1.0"}},
		}
		for _, e := range entries {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        baseURL + "/" + url.PathEscape(e.Slug),
				LastMod:    e.UpdatedAt.UTC().Format(time.RFC3339),
				ChangeFreq: "daily",
				Priority:   "0.9",
			})
		}
		body, err := xml.MarshalIndent(set, "", "  ")
		if err != nil {
			logger.Errorf("sitemap: encode: %v", err)
			c.String(http.StatusInternalServerError, "Error generating sitemap")
			return
		}
		c.Header("X-Generated-At", now)
		c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), body...))
	})
}
