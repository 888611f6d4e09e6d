package repository

import (
	"context"
	"strings"
	"time"

	"github.com/trackadmission/go-services/internal/content"
)

// Repository persists posts and their embedded version logs. Implementations
// return content.ErrNotFound for unknown ids and content.ErrVersionConflict
// when a conditional append loses a race.
type Repository interface {
	Create(ctx context.Context, doc *content.Document) error
	Get(ctx context.Context, id string) (*content.Document, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*content.Document, error)
	List(ctx context.Context, q content.ListQuery) ([]*content.Document, int64, error)
	Search(ctx context.Context, term string, limit int) ([]content.SearchHit, error)
	// Count counts live posts created or updated at or after since; zero since counts all.
	Count(ctx context.Context, since time.Time) (int64, error)
	History(ctx context.Context, id string) (*content.History, error)
	// AppendVersion pushes v and replaces the live fields only while the
	// stored currentVersion still equals expected.
	AppendVersion(ctx context.Context, id string, expected int, v content.Version, live content.LiveFields) error
	UpdateMeta(ctx context.Context, id string, u content.MetaUpdate, now time.Time) (*content.Document, error)
	SetDeleted(ctx context.Context, id string, deleted bool, now time.Time) (*content.Document, error)
	// RemoveVersions pulls the listed version numbers and reports how many were removed.
	RemoveVersions(ctx context.Context, id string, versions []int) (int, error)
	// RetentionView returns every post holding more than one version, with
	// the fields retention needs.
	RetentionView(ctx context.Context) ([]*content.Document, error)
	Summaries(ctx context.Context, ids []string) (map[string]content.Summary, error)
	// Sitemap lists live published posts, most recently updated first.
	Sitemap(ctx context.Context) ([]content.SitemapEntry, error)
}

// categoryKey normalizes a category for comparison: lower case, hyphens as spaces.
func categoryKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", " "))
}
