package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/content/repository"
	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/metrics"
)

// maxAppendAttempts bounds the optimistic retry loop of AppendVersion.
const maxAppendAttempts = 5

const initialChangelog = "Initial version"

// Cache is the read-through cache used for published posts looked up by slug.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// Service implements the content operations used by the HTTP layer and housekeeping.
type Service struct {
	repo   repository.Repository
	cache  Cache
	policy content.VersioningPolicy
	now    func() time.Time
}

type Option func(*Service)

// WithCache enables caching of published posts.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithPolicy sets the versioning policy stamped on new documents.
func WithPolicy(p content.VersioningPolicy) Option { return func(s *Service) { s.policy = p } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo repository.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, policy: content.DefaultVersioningPolicy(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func slugKey(slug string) string { return "slug:" + slug }

func (s *Service) invalidate(ctx context.Context, slug string) {
	if s.cache == nil || slug == "" {
		return
	}
	if err := s.cache.Delete(ctx, slugKey(slug)); err != nil {
		logger.Warnf("content cache invalidate %s: %v", slug, err)
	}
}

// Create validates a draft and stores it as version 1.
func (s *Service) Create(ctx context.Context, d content.Draft) (*content.Document, error) {
	d.Sanitize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	derived := content.Derive(d.Content, d.SEO, d.Media)
	doc := &content.Document{
		Title:            d.Title,
		Description:      d.Description,
		Slug:             d.Slug,
		Content:          d.Content,
		PlainText:        derived.PlainText,
		WordCount:        derived.WordCount,
		ReadingTime:      derived.ReadingTime,
		FAQ:              nonNil(d.FAQ),
		SEO:              d.SEO,
		Media:            nonNil(d.Media),
		HeaderImage:      d.HeaderImage,
		Status:           d.Status,
		ScheduledPublish: d.ScheduledPublish,
		Author:           d.Author,
		Categories:       d.Categories,
		Keywords:         nonNil(d.Keywords),
		CurrentVersion:   1,
		Versions: []content.Version{{
			Version:   1,
			Content:   d.Content,
			SEO:       d.SEO,
			Hash:      content.Fingerprint(d.Content),
			Author:    d.Author,
			Timestamp: now,
			Changelog: initialChangelog,
			Diffs:     []content.DiffOp{},
		}},
		VersioningPolicy: s.policy,
		SEOAnalysis:      derived.SEOAnalysis,
		TableOfContents:  nonNil(d.TableOfContents),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	logger.Infof("content created id=%s slug=%s", doc.ID, doc.Slug)
	return doc, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func (s *Service) Get(ctx context.Context, id string) (*content.Document, error) {
	return s.repo.Get(ctx, id)
}

// GetPublishedBySlug serves a live published post, through the cache when configured.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (*content.Document, error) {
	if s.cache != nil {
		var cached content.Document
		hit, err := s.cache.Get(ctx, slugKey(slug), &cached)
		if err != nil {
			logger.Warnf("content cache get %s: %v", slug, err)
		} else if hit {
			return &cached, nil
		}
	}
	doc, err := s.repo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, slugKey(slug), doc); err != nil {
			logger.Warnf("content cache set %s: %v", slug, err)
		}
	}
	return doc, nil
}

// ListResult is a page of posts plus pagination metadata.
type ListResult struct {
	Contents   []*content.Document `json:"contents"`
	Pagination content.Pagination  `json:"pagination"`
}

func (s *Service) List(ctx context.Context, q content.ListQuery) (*ListResult, error) {
	q = q.Normalize()
	docs, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ListResult{Contents: docs, Pagination: content.NewPagination(total, q.Page, q.Limit)}, nil
}

// Search matches published post titles. An empty term yields no results.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]content.SearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []content.SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.Search(ctx, term, limit)
}

// Sitemap lists the published posts to advertise to crawlers.
func (s *Service) Sitemap(ctx context.Context) ([]content.SitemapEntry, error) {
	return s.repo.Sitemap(ctx)
}

// Total counts live posts.
func (s *Service) Total(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, time.Time{})
}

// DailyActivity counts live posts created or updated since local midnight.
func (s *Service) DailyActivity(ctx context.Context) (int64, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Count(ctx, midnight)
}

func (s *Service) History(ctx context.Context, id string) (*content.History, error) {
	return s.repo.History(ctx, id)
}

// AppendInput is a request to record a new version.
type AppendInput struct {
	Content   string
	SEO       *content.SEO // nil keeps the current SEO block
	Changelog string
	Author    content.Author
}

// AppendVersion records a new version when the fingerprint of in.Content
// differs from the current version's. The push and the live-field update are
// one conditional write; a lost race reloads and retries.
func (s *Service) AppendVersion(ctx context.Context, id string, in AppendInput) (*content.Version, error) {
	ve := &content.ValidationError{}
	if strings.TrimSpace(in.Content) == "" {
		ve.Problems = append(ve.Problems, "content is required")
	}
	if strings.TrimSpace(in.Changelog) == "" {
		ve.Problems = append(ve.Problems, "changelog is required")
	}
	var seo *content.SEO
	if in.SEO != nil {
		sanitized := content.SanitizeSEO(*in.SEO)
		if err := content.ValidateSEO(sanitized); err != nil {
			var sve *content.ValidationError
			if errors.As(err, &sve) {
				ve.Problems = append(ve.Problems, sve.Problems...)
			}
		}
		seo = &sanitized
	}
	if len(ve.Problems) > 0 {
		return nil, ve
	}

	hash := content.Fingerprint(in.Content)
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		doc, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur := doc.CurrentEntry(); cur != nil && cur.Hash == hash {
			metrics.ContentVersions.WithLabelValues("no_change").Inc()
			return nil, content.ErrNoChanges
		}

		nextSEO := doc.SEO
		if seo != nil {
			nextSEO = *seo
		}
		now := s.now().UTC()
		v := content.Version{
			Version:   doc.CurrentVersion + 1,
			Content:   in.Content,
			SEO:       nextSEO,
			Hash:      hash,
			Author:    in.Author,
			Timestamp: now,
			Changelog: strings.TrimSpace(in.Changelog),
			Diffs:     []content.DiffOp{},
		}
		derived := content.Derive(in.Content, nextSEO, doc.Media)
		live := content.LiveFields{
			Content:     in.Content,
			SEO:         nextSEO,
			PlainText:   derived.PlainText,
			WordCount:   derived.WordCount,
			ReadingTime: derived.ReadingTime,
			SEOAnalysis: derived.SEOAnalysis,
			UpdatedAt:   now,
		}

		err = s.repo.AppendVersion(ctx, id, doc.CurrentVersion, v, live)
		if errors.Is(err, content.ErrVersionConflict) {
			metrics.ContentVersions.WithLabelValues("conflict").Inc()
			logger.Debugf("version append conflict on %s (attempt %d/%d)", id, attempt, maxAppendAttempts)
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.ContentVersions.WithLabelValues("appended").Inc()
		s.invalidate(ctx, doc.Slug)
		logger.Infof("content %s now at version %d", id, v.Version)
		return &v, nil
	}
	return nil, fmt.Errorf("append version to %s: %w", id, content.ErrVersionConflict)
}

// UpdateMeta changes non-versioned fields in place.
func (s *Service) UpdateMeta(ctx context.Context, id string, u content.MetaUpdate) (*content.Document, error) {
	if u.Empty() {
		return nil, &content.ValidationError{Problems: []string{"no updatable fields provided"}}
	}
	ve := &content.ValidationError{}
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		u.Title = &t
		if t == "" {
			ve.Problems = append(ve.Problems, "title is required")
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		ve.Problems = append(ve.Problems, "invalid status "+string(*u.Status))
	}
	if u.Categories != nil && len(*u.Categories) == 0 {
		ve.Problems = append(ve.Problems, "at least one category is required")
	}
	if u.Score != nil && (*u.Score < 0 || *u.Score > 100) {
		ve.Problems = append(ve.Problems, "score must be between 0 and 100")
	}
	if len(ve.Problems) > 0 {
		return nil, ve
	}
	doc, err := s.repo.UpdateMeta(ctx, id, u, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, doc.Slug)
	return doc, nil
}

// SetDeleted soft-deletes or restores a post.
func (s *Service) SetDeleted(ctx context.Context, id string, deleted bool) (*content.Document, error) {
	doc, err := s.repo.SetDeleted(ctx, id, deleted, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, doc.Slug)
	action := "restored"
	if deleted {
		action = "deleted"
	}
	logger.Infof("content %s %s", id, action)
	return doc, nil
}

// PurgeVersions applies the document's retention policy and returns the number of entries removed.
func (s *Service) PurgeVersions(ctx context.Context, id string) (int, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.purge(ctx, doc)
}

func (s *Service) purge(ctx context.Context, doc *content.Document) (int, error) {
	policy := doc.VersioningPolicy
	if policy.MaxVersions == 0 && policy.AutoPurgeAfter == 0 {
		policy = s.policy
	}
	candidates := content.PurgeCandidates(doc.Versions, doc.CurrentVersion, policy, s.now())
	if len(candidates) == 0 {
		return 0, nil
	}
	n, err := s.repo.RemoveVersions(ctx, doc.ID, candidates)
	if err != nil {
		return 0, err
	}
	metrics.ContentVersionsPurged.Add(float64(n))
	return n, nil
}

// PurgeAll runs retention over every document with history and returns the total removed.
func (s *Service) PurgeAll(ctx context.Context) (int, error) {
	docs, err := s.repo.RetentionView(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.purge(ctx, d)
		if err != nil {
			logger.Errorf("purge versions of %s: %v", d.ID, err)
			continue
		}
		total += n
	}
	if total > 0 {
		logger.Infof("version retention removed %d entries across %d documents", total, len(docs))
	}
	return total, nil
}

// Summaries resolves post references for trending listings.
func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]content.Summary, error) {
	return s.repo.Summaries(ctx, ids)
}
