package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/content/repository"
)

var writer = content.Author{Email: "w@example.com", FirstName: "Asha", LastName: "Rao"}

func draft(slug, body string) content.Draft {
	return content.Draft{
		Title:       "Admissions " + slug,
		Description: "Guide",
		Slug:        slug,
		Content:     body,
		SEO:         content.SEO{Title: "Admissions guide", Description: "All about admissions"},
		Author:      writer,
		Categories:  []string{"Engineering"},
	}
}

func TestCreateStoresInitialVersion(t *testing.T) {
	svc := NewService(repository.NewMemoryRepo())
	doc, err := svc.Create(context.Background(), draft("post-a", "<p>A</p>"))
	require.NoError(t, err)
	require.Equal(t, 1, doc.CurrentVersion)
	require.Len(t, doc.Versions, 1)
	assert.Equal(t, content.Fingerprint("<p>A</p>"), doc.Versions[0].Hash)
	assert.Equal(t, "A", doc.PlainText)
	assert.Equal(t, 1, doc.WordCount)
	assert.Equal(t, content.DefaultVersioningPolicy(), doc.VersioningPolicy)
	assert.NotNil(t, doc.Versions[0].Diffs)

	_, err = svc.Create(context.Background(), draft("post-a", "<p>B</p>"))
	require.ErrorIs(t, err, content.ErrSlugTaken)

	bad := draft("Not A Slug", "x")
	_, err = svc.Create(context.Background(), bad)
	require.True(t, content.IsValidation(err))
}

func TestAppendVersionNoChangeThenChange(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepo())
	doc, err := svc.Create(ctx, draft("post-b", "A"))
	require.NoError(t, err)

	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "A", Changelog: "same", Author: writer})
	require.ErrorIs(t, err, content.ErrNoChanges)
	// whitespace and line endings normalize away
	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: " A\r\n", Changelog: "same", Author: writer})
	require.ErrorIs(t, err, content.ErrNoChanges)

	h, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, h.CurrentVersion)

	v, err := svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "B", Changelog: "edit", Author: writer})
	require.NoError(t, err)
	require.Equal(t, 2, v.Version)
	require.Empty(t, v.Diffs)

	h, err = svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 2, h.CurrentVersion)
	require.Len(t, h.Versions, 2)

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "B", got.Content)

	_, err = svc.AppendVersion(ctx, "missing", AppendInput{Content: "C", Changelog: "x"})
	require.ErrorIs(t, err, content.ErrNotFound)

	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "C"})
	require.True(t, content.IsValidation(err))

	long := content.SEO{Title: "t", Description: ""}
	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "C", Changelog: "x", SEO: &long})
	require.True(t, content.IsValidation(err))
}

func TestVersionsStayMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepo())
	doc, err := svc.Create(ctx, draft("post-c", "v1"))
	require.NoError(t, err)

	for i, body := range []string{"v2", "v2", "v3", "v3", "v3", "v4"} {
		_, _ = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: body, Changelog: fmt.Sprint(i), Author: writer})
	}
	h, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 4, h.CurrentVersion)
	for i, v := range h.Versions {
		require.Equal(t, i+1, v.Version)
	}
}

func TestConcurrentAppendsDoNotLoseVersions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepo())
	doc, err := svc.Create(ctx, draft("post-d", "base"))
	require.NoError(t, err)

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: fmt.Sprintf("edit %d", i), Changelog: "c", Author: writer})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	h, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, writers+1, h.CurrentVersion)
	require.Len(t, h.Versions, writers+1)
	for i, v := range h.Versions {
		require.Equal(t, i+1, v.Version)
	}
}

// conflictRepo makes the first n conditional appends lose the race.
type conflictRepo struct {
	repository.Repository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictRepo) AppendVersion(ctx context.Context, id string, expected int, v content.Version, live content.LiveFields) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return content.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.Repository.AppendVersion(ctx, id, expected, v, live)
}

func TestAppendVersionRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := &conflictRepo{Repository: repository.NewMemoryRepo(), conflicts: 2}
	svc := NewService(repo)
	doc, err := svc.Create(ctx, draft("post-e", "A"))
	require.NoError(t, err)

	v, err := svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "B", Changelog: "c"})
	require.NoError(t, err)
	require.Equal(t, 2, v.Version)

	repo.conflicts = maxAppendAttempts
	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "C", Changelog: "c"})
	require.ErrorIs(t, err, content.ErrVersionConflict)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) Set(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.dels++
	}
	return nil
}

func TestPublishedBySlugIsCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	svc := NewService(repository.NewMemoryRepo(), WithCache(cache))

	d := draft("cached-post", "A")
	d.Status = content.StatusPublished
	doc, err := svc.Create(ctx, d)
	require.NoError(t, err)

	got, err := svc.GetPublishedBySlug(ctx, "cached-post")
	require.NoError(t, err)
	require.Equal(t, "A", got.Content)
	require.Contains(t, cache.data, "slug:cached-post")

	_, err = svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "B", Changelog: "c"})
	require.NoError(t, err)
	require.NotContains(t, cache.data, "slug:cached-post")

	got, err = svc.GetPublishedBySlug(ctx, "cached-post")
	require.NoError(t, err)
	require.Equal(t, "B", got.Content)

	_, err = svc.SetDeleted(ctx, doc.ID, true)
	require.NoError(t, err)
	_, err = svc.GetPublishedBySlug(ctx, "cached-post")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestUpdateMeta(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepo())
	doc, err := svc.Create(ctx, draft("meta-post", "A"))
	require.NoError(t, err)

	status := content.StatusReview
	got, err := svc.UpdateMeta(ctx, doc.ID, content.MetaUpdate{Status: &status})
	require.NoError(t, err)
	require.Equal(t, content.StatusReview, got.Status)
	require.Equal(t, 1, got.CurrentVersion)

	_, err = svc.UpdateMeta(ctx, doc.ID, content.MetaUpdate{})
	require.True(t, content.IsValidation(err))

	bad := content.Status("gone")
	_, err = svc.UpdateMeta(ctx, doc.ID, content.MetaUpdate{Status: &bad})
	require.True(t, content.IsValidation(err))

	_, err = svc.UpdateMeta(ctx, "missing", content.MetaUpdate{Status: &status})
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestPurgeVersionsKeepsCurrentAndNumbers(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	svc := NewService(repository.NewMemoryRepo(),
		WithClock(now),
		WithPolicy(content.VersioningPolicy{MaxVersions: 3, KeepMajorChanges: true, AutoPurgeAfter: 90}))

	doc, err := svc.Create(ctx, draft("retained", "v1"))
	require.NoError(t, err)
	for i := 2; i <= 6; i++ {
		clock = clock.Add(time.Hour)
		_, err := svc.AppendVersion(ctx, doc.ID, AppendInput{Content: fmt.Sprintf("v%d", i), Changelog: "c"})
		require.NoError(t, err)
	}

	removed, err := svc.PurgeAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	h, err := svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 6, h.CurrentVersion)
	require.Equal(t, []int{4, 5, 6}, []int{h.Versions[0].Version, h.Versions[1].Version, h.Versions[2].Version})

	// numbering continues past purged entries
	v, err := svc.AppendVersion(ctx, doc.ID, AppendInput{Content: "v7", Changelog: "c"})
	require.NoError(t, err)
	require.Equal(t, 7, v.Version)

	// everything but the current version ages out
	clock = clock.AddDate(0, 0, 120)
	removed, err = svc.PurgeVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 3, removed)
	h, err = svc.History(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, h.Versions, 1)
	require.Equal(t, 7, h.Versions[0].Version)
}

func TestListSearchAndCounts(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepo())
	for i := 0; i < 8; i++ {
		d := draft(fmt.Sprintf("post-%d", i), "body")
		if i%2 == 0 {
			d.Status = content.StatusPublished
		}
		_, err := svc.Create(ctx, d)
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, content.ListQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, res.Contents, 3)
	require.Equal(t, int64(8), res.Pagination.Total)
	require.Equal(t, 3, res.Pagination.Pages)
	require.True(t, res.Pagination.HasNextPage)

	hits, err := svc.Search(ctx, "admissions", 0)
	require.NoError(t, err)
	require.Len(t, hits, 4)
	hits, err = svc.Search(ctx, "   ", 0)
	require.NoError(t, err)
	require.Empty(t, hits)

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(8), total)
	today, err := svc.DailyActivity(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(8), today)
}
