package leads

import (
	"context"
	"time"

	"github.com/trackadmission/go-services/pkg/logger"
	"github.com/trackadmission/go-services/pkg/metrics"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage bounds the skip computed from page and limit.
	MaxPage = 10000
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit validates and stores a new pending lead.
func (s *Service) Submit(ctx context.Context, in Submission) (*Lead, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	l := &Lead{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Course:        in.Course,
		EducationMode: in.EducationMode,
		Status:        StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	metrics.LeadsSubmitted.Inc()
	logger.Infof("leads: stored submission %s for course %q", l.ID, l.Course)
	return l, nil
}

// List pages through leads newest first. Non-positive page and limit fall back to defaults.
func (s *Service) List(ctx context.Context, status Status, page, limit int) (*Page, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status " + string(status)}}
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	items, total, err := s.repo.List(ctx, status, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Lead{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{
		Leads:      items,
		Pagination: Pagination{Total: total, Limit: limit, Pages: pages, Page: page},
	}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status " + string(status)}}
	}
	return s.repo.SetStatus(ctx, id, status)
}
