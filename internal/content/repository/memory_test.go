package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/content"
)

func newDoc(slug, title string, status content.Status, created time.Time) *content.Document {
	return &content.Document{
		Title:          title,
		Slug:           slug,
		Status:         status,
		Categories:     []string{"Online MBA"},
		SEO:            content.SEO{FocusKeywords: []string{"distance learning"}},
		CurrentVersion: 1,
		Versions:       []content.Version{{Version: 1, Hash: "h1", Timestamp: created}},
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	now := time.Now()

	d := newDoc("first-post", "First post", content.StatusDraft, now)
	require.NoError(t, r.Create(ctx, d))
	require.NotEmpty(t, d.ID)
	require.ErrorIs(t, r.Create(ctx, newDoc("first-post", "dup", content.StatusDraft, now)), content.ErrSlugTaken)

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "First post", got.Title)

	// returned documents are copies
	got.Versions[0].Hash = "mutated"
	again, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "h1", again.Versions[0].Hash)

	_, err = r.GetPublishedBySlug(ctx, "first-post")
	require.ErrorIs(t, err, content.ErrNotFound)

	published := content.StatusPublished
	title := "First post, revised"
	upd, err := r.UpdateMeta(ctx, d.ID, content.MetaUpdate{Status: &published, Title: &title}, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, content.StatusPublished, upd.Status)
	bySlug, err := r.GetPublishedBySlug(ctx, "first-post")
	require.NoError(t, err)
	require.Equal(t, title, bySlug.Title)

	_, err = r.SetDeleted(ctx, d.ID, true, now)
	require.NoError(t, err)
	_, err = r.GetPublishedBySlug(ctx, "first-post")
	require.ErrorIs(t, err, content.ErrNotFound)

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestMemoryRepoAppendVersionConditional(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := newDoc("p", "P", content.StatusDraft, time.Now())
	require.NoError(t, r.Create(ctx, d))

	v2 := content.Version{Version: 2, Content: "B", Hash: "h2"}
	require.NoError(t, r.AppendVersion(ctx, d.ID, 1, v2, content.LiveFields{Content: "B"}))
	// a writer that read version 1 loses
	require.ErrorIs(t, r.AppendVersion(ctx, d.ID, 1, v2, content.LiveFields{Content: "B"}), content.ErrVersionConflict)
	require.ErrorIs(t, r.AppendVersion(ctx, "nope", 1, v2, content.LiveFields{}), content.ErrNotFound)

	h, err := r.History(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 2, h.CurrentVersion)
	require.Len(t, h.Versions, 2)

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "B", got.Content)
}

func TestMemoryRepoListFilters(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Now().Add(-time.Hour)
	for i, slug := range []string{"a", "b", "c", "d"} {
		status := content.StatusPublished
		if i == 3 {
			status = content.StatusDraft
		}
		require.NoError(t, r.Create(ctx, newDoc(slug, "Post "+slug, status, base.Add(time.Duration(i)*time.Minute))))
	}
	gone := newDoc("e", "Post e", content.StatusPublished, base)
	gone.IsDeleted = true
	require.NoError(t, r.Create(ctx, gone))

	list, total, err := r.List(ctx, content.ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, list, 2)
	require.Equal(t, "d", list[0].Slug)

	list, total, err = r.List(ctx, content.ListQuery{Status: content.StatusDraft})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "d", list[0].Slug)

	_, total, err = r.List(ctx, content.ListQuery{Category: "online-mba", PublishedOnly: true})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	_, total, err = r.List(ctx, content.ListQuery{Search: "DISTANCE"})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)

	list, _, err = r.List(ctx, content.ListQuery{SortField: "title", SortAsc: true, Page: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "d", list[0].Slug)

	hits, err := r.Search(ctx, "post", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Empty(t, hits[0].Author.Email)

	n, err := r.Count(ctx, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	n, err = r.Count(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestMemoryRepoRemoveVersions(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := newDoc("p", "P", content.StatusDraft, time.Now())
	require.NoError(t, r.Create(ctx, d))
	for v := 2; v <= 4; v++ {
		require.NoError(t, r.AppendVersion(ctx, d.ID, v-1, content.Version{Version: v}, content.LiveFields{}))
	}

	removed, err := r.RemoveVersions(ctx, d.ID, []int{1, 2, 4})
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	h, err := r.History(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 4, h.CurrentVersion)
	require.Equal(t, []int{3, 4}, []int{h.Versions[0].Version, h.Versions[1].Version})

	view, err := r.RetentionView(ctx)
	require.NoError(t, err)
	require.Len(t, view, 1)

	sums, err := r.Summaries(ctx, []string{d.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	require.Equal(t, "p", sums[d.ID].Slug)
}

func TestMemoryRepoAuthorFilterAndSitemap(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, slug := range []string{"old", "new", "draft", "gone"} {
		status := content.StatusPublished
		if slug == "draft" {
			status = content.StatusDraft
		}
		d := newDoc(slug, slug, status, base.Add(time.Duration(i)*time.Hour))
		d.Author = content.Author{Email: "Asha@Example.com", FirstName: "Asha", LastName: "Rao"}
		if slug == "gone" {
			d.IsDeleted = true
		}
		require.NoError(t, r.Create(ctx, d))
	}
	other := newDoc("other", "other", content.StatusPublished, base.Add(-time.Hour))
	other.Author = content.Author{Email: "ravi@example.com"}
	require.NoError(t, r.Create(ctx, other))

	docs, total, err := r.List(ctx, content.ListQuery{AuthorEmail: "asha@example.com", PublishedOnly: true, SortField: "createdAt"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "new", docs[0].Slug)
	require.Equal(t, "old", docs[1].Slug)

	entries, err := r.Sitemap(ctx)
	require.NoError(t, err)
	var slugs []string
	for _, e := range entries {
		slugs = append(slugs, e.Slug)
	}
	require.Equal(t, []string{"new", "old", "other"}, slugs)
}
