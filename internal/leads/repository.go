package leads

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, l *Lead) error
	// List filters by status when non-empty and returns newest first.
	List(ctx context.Context, status Status, skip, limit int) ([]Lead, int64, error)
	SetStatus(ctx context.Context, id string, status Status) (*Lead, error)
}

type MemoryRepo struct {
	mu    sync.RWMutex
	leads []Lead
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (m *MemoryRepo) Insert(ctx context.Context, l *Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	m.leads = append(m.leads, *l)
	return nil
}

func (m *MemoryRepo) List(ctx context.Context, status Status, skip, limit int) ([]Lead, int64, error) {
	m.mu.RLock()
	var out []Lead
	for i := len(m.leads) - 1; i >= 0; i-- {
		if status == "" || m.leads[i].Status == status {
			out = append(out, m.leads[i])
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MemoryRepo) SetStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.leads {
		if m.leads[i].ID == id {
			m.leads[i].Status = status
			l := m.leads[i]
			return &l, nil
		}
	}
	return nil, ErrNotFound
}
