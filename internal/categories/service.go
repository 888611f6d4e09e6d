package categories

import (
	"context"
	"time"

	"github.com/trackadmission/go-services/pkg/logger"
)

// listKey holds the whole ordered list; any write drops it.
const listKey = "list"

// Cache is the read-through cache for the category list.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

// NewService wires the repository. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	if s.cache != nil {
		var cached []Category
		hit, err := s.cache.Get(ctx, listKey, &cached)
		if err != nil {
			logger.Warnf("categories cache get: %v", err)
		} else if hit {
			return cached, nil
		}
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, listKey, list); err != nil {
			logger.Warnf("categories cache set: %v", err)
		}
	}
	return list, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listKey); err != nil {
		logger.Warnf("categories cache invalidate: %v", err)
	}
}

func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logger.Infof("categories: created %s (%s)", c.Slug, c.ID)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Category, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Update(ctx, id, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	logger.Infof("categories: deleted %s", id)
	return nil
}
