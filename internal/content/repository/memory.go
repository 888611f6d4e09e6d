package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trackadmission/go-services/internal/content"
)

// MemoryRepo is an in-memory Repository used in tests and local runs without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*content.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*content.Document)}
}

func clone(d *content.Document) *content.Document {
	c := *d
	c.Versions = append([]content.Version(nil), d.Versions...)
	c.Categories = append([]string(nil), d.Categories...)
	c.Keywords = append([]string(nil), d.Keywords...)
	c.FAQ = append([]content.FAQ(nil), d.FAQ...)
	c.Media = append([]content.Media(nil), d.Media...)
	c.TableOfContents = append([]content.TOCEntry(nil), d.TableOfContents...)
	if d.HeaderImage != nil {
		h := *d.HeaderImage
		c.HeaderImage = &h
	}
	return &c
}

func (m *MemoryRepo) Create(ctx context.Context, doc *content.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.store {
		if d.Slug == doc.Slug {
			return content.ErrSlugTaken
		}
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	m.store[doc.ID] = clone(doc)
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return clone(d), nil
	}
	return nil, content.ErrNotFound
}

func (m *MemoryRepo) GetPublishedBySlug(ctx context.Context, slug string) (*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.Slug == slug && d.Status == content.StatusPublished && !d.IsDeleted {
			return clone(d), nil
		}
	}
	return nil, content.ErrNotFound
}

func matches(d *content.Document, q content.ListQuery) bool {
	if d.IsDeleted {
		return false
	}
	if q.PublishedOnly && d.Status != content.StatusPublished {
		return false
	}
	if q.Status != "" && d.Status != q.Status {
		return false
	}
	if q.Category != "" {
		want := categoryKey(q.Category)
		found := false
		for _, c := range d.Categories {
			if strings.ToLower(c) == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.AuthorEmail != "" && !strings.EqualFold(d.Author.Email, q.AuthorEmail) {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		hit := strings.Contains(strings.ToLower(d.Title), term)
		for _, k := range d.SEO.FocusKeywords {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(k), term)
		}
		if !hit {
			return false
		}
	}
	return true
}

// less orders a before b on field, ascending.
func less(a, b *content.Document, field string) (bool, bool) {
	switch field {
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case "title":
		return a.Title < b.Title, a.Title == b.Title
	case "score":
		return a.Score < b.Score, a.Score == b.Score
	case "wordCount":
		return a.WordCount < b.WordCount, a.WordCount == b.WordCount
	case "readingTime":
		return a.ReadingTime < b.ReadingTime, a.ReadingTime == b.ReadingTime
	case "status":
		return a.Status < b.Status, a.Status == b.Status
	default:
		return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
	}
}

func (m *MemoryRepo) List(ctx context.Context, q content.ListQuery) ([]*content.Document, int64, error) {
	q = q.Normalize()
	m.mu.RLock()
	all := make([]*content.Document, 0, len(m.store))
	for _, d := range m.store {
		if matches(d, q) {
			all = append(all, clone(d))
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		lt, eq := less(all[i], all[j], q.SortField)
		if !eq {
			if q.SortAsc {
				return lt
			}
			return !lt
		}
		// createdAt desc breaks ties
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := q.Skip()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *MemoryRepo) Search(ctx context.Context, term string, limit int) ([]content.SearchHit, error) {
	m.mu.RLock()
	var docs []*content.Document
	needle := strings.ToLower(term)
	for _, d := range m.store {
		if d.IsDeleted || d.Status != content.StatusPublished {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), needle) {
			docs = append(docs, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.After(docs[j].UpdatedAt) })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]content.SearchHit, 0, len(docs))
	for _, d := range docs {
		out = append(out, toHit(d))
	}
	return out, nil
}

func toHit(d *content.Document) content.SearchHit {
	h := content.SearchHit{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Slug:        d.Slug,
		UpdatedAt:   d.UpdatedAt,
		Author:      content.Author{FirstName: d.Author.FirstName, LastName: d.Author.LastName},
	}
	if d.HeaderImage != nil {
		img := *d.HeaderImage
		h.HeaderImage = &img
	}
	return h
}

func (m *MemoryRepo) Count(ctx context.Context, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, d := range m.store {
		if d.IsDeleted {
			continue
		}
		if since.IsZero() || !d.CreatedAt.Before(since) || !d.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) History(ctx context.Context, id string) (*content.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	return &content.History{
		ID:             d.ID,
		CurrentVersion: d.CurrentVersion,
		Versions:       append([]content.Version(nil), d.Versions...),
	}, nil
}

func (m *MemoryRepo) AppendVersion(ctx context.Context, id string, expected int, v content.Version, live content.LiveFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return content.ErrNotFound
	}
	if d.CurrentVersion != expected {
		return content.ErrVersionConflict
	}
	d.Versions = append(d.Versions, v)
	d.CurrentVersion = v.Version
	d.Content = live.Content
	d.SEO = live.SEO
	d.PlainText = live.PlainText
	d.WordCount = live.WordCount
	d.ReadingTime = live.ReadingTime
	d.SEOAnalysis = live.SEOAnalysis
	d.UpdatedAt = live.UpdatedAt
	return nil
}

func (m *MemoryRepo) UpdateMeta(ctx context.Context, id string, u content.MetaUpdate, now time.Time) (*content.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	u.Apply(d)
	d.UpdatedAt = now
	return clone(d), nil
}

func (m *MemoryRepo) SetDeleted(ctx context.Context, id string, deleted bool, now time.Time) (*content.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	d.IsDeleted = deleted
	d.UpdatedAt = now
	return clone(d), nil
}

func (m *MemoryRepo) RemoveVersions(ctx context.Context, id string, versions []int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return 0, content.ErrNotFound
	}
	drop := make(map[int]bool, len(versions))
	for _, n := range versions {
		if n != d.CurrentVersion {
			drop[n] = true
		}
	}
	kept := d.Versions[:0:0]
	for _, v := range d.Versions {
		if !drop[v.Version] {
			kept = append(kept, v)
		}
	}
	removed := len(d.Versions) - len(kept)
	d.Versions = kept
	return removed, nil
}

func (m *MemoryRepo) RetentionView(ctx context.Context) ([]*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*content.Document
	for _, d := range m.store {
		if len(d.Versions) > 1 {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepo) Summaries(ctx context.Context, ids []string) (map[string]content.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]content.Summary, len(ids))
	for _, id := range ids {
		d, ok := m.store[id]
		if !ok {
			continue
		}
		s := content.Summary{ID: d.ID, Title: d.Title, Slug: d.Slug}
		if d.HeaderImage != nil {
			img := *d.HeaderImage
			s.HeaderImage = &img
		}
		out[id] = s
	}
	return out, nil
}

func (m *MemoryRepo) Sitemap(ctx context.Context) ([]content.SitemapEntry, error) {
	m.mu.RLock()
	out := []content.SitemapEntry{}
	for _, d := range m.store {
		if d.IsDeleted || d.Status != content.StatusPublished || d.UpdatedAt.IsZero() {
			continue
		}
		out = append(out, content.SitemapEntry{Slug: d.Slug, UpdatedAt: d.UpdatedAt})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
