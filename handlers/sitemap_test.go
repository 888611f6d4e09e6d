package handlers

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/content"
)

type staticSitemap struct {
	entries []content.SitemapEntry
	err     error
}

func (s staticSitemap) Sitemap(ctx context.Context) ([]content.SitemapEntry, error) {
	return s.entries, s.err
}

func TestSitemap(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := newEngine()
	RegisterSitemapRoute(g, staticSitemap{entries: []content.SitemapEntry{
		{Slug: "online-mba-guide", UpdatedAt: at},
		{Slug: "b&b", UpdatedAt: at.Add(-time.Hour)},
	}}, "https://example.com/")

	w := call(g, http.MethodGet, "/sitemap.xml", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/xml")
	assert.Equal(t, "no-store, must-revalidate", w.Header().Get("Cache-Control"))

	var got urlSet
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "http://www.sitemaps.org/schemas/sitemap/0.9", got.XMLName.Space)
	require.Len(t, got.URLs, 3)
	assert.Equal(t, "https://example.com", got.URLs[0].Loc)
	assert.Equal(t, "1.0", got.URLs[0].Priority)
	assert.Equal(t, "https://example.com/online-mba-guide", got.URLs[1].Loc)
	assert.Equal(t, "2025-06-01T12:00:00Z", got.URLs[1].LastMod)
	assert.Equal(t, "https://example.com/b&b", got.URLs[2].Loc)
	// the ampersand is escaped in the document itself
	assert.Contains(t, w.Body.String(), "b&amp;b")
}

func TestSitemapError(t *testing.T) {
	g := newEngine()
	RegisterSitemapRoute(g, staticSitemap{err: errors.New("down")}, "https://example.com")
	w := call(g, http.MethodGet, "/sitemap.xml", "", nil, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error generating sitemap", w.Body.String())
}
