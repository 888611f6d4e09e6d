package trending

import (
	"context"
	"time"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/metrics"
)

// Posts resolves post references for listings.
type Posts interface {
	Summaries(ctx context.Context, ids []string) (map[string]content.Summary, error)
}

type Service struct {
	repo  Repository
	posts Posts
	now   func() time.Time
}

// NewService returns a slot manager. posts may be nil, in which case listings carry no post details.
func NewService(repo Repository, posts Posts) *Service {
	return &Service{repo: repo, posts: posts, now: time.Now}
}

// SetSlot adds blogID at position and evicts the oldest entries beyond Limit.
func (s *Service) SetSlot(ctx context.Context, blogID string, position int) (*Entry, error) {
	if err := validate(blogID, position); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := &Entry{BlogID: blogID, Position: position, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	if _, err := s.Enforce(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Update points entry id at blogID and position, creating it when it does not exist.
func (s *Service) Update(ctx context.Context, id, blogID string, position int) (*Entry, error) {
	if id == "" {
		return nil, &ValidationError{Field: "trendingId", Reason: "required"}
	}
	if err := validate(blogID, position); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	// CreatedAt only applies when the upsert inserts
	e := &Entry{ID: id, BlogID: blogID, Position: position, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return nil, err
	}
	// an upsert may have created a fifth entry
	if _, err := s.Enforce(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	return s.repo.Delete(ctx, id)
}

// List returns the entries, highest position first, joined with their posts.
func (s *Service) List(ctx context.Context) ([]View, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var posts map[string]content.Summary
	if s.posts != nil && len(entries) > 0 {
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.BlogID)
		}
		if posts, err = s.posts.Summaries(ctx, ids); err != nil {
			return nil, err
		}
	}
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		v := View{Entry: e}
		if p, ok := posts[e.BlogID]; ok {
			p := p
			v.Blog = &p
		}
		out = append(out, v)
	}
	return out, nil
}

// Enforce trims the collection back to Limit entries.
func (s *Service) Enforce(ctx context.Context) (int, error) {
	n, err := s.repo.Trim(ctx, Limit)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.TrendingEvicted.Add(float64(n))
		logger.Infof("trending: evicted %d entries beyond the %d-slot cap", n, Limit)
	}
	return n, nil
}
