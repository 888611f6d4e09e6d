package categories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// List returns every category by display order, then name.
	List(ctx context.Context) ([]Category, error)
	Insert(ctx context.Context, c *Category) error
	// Update replaces the editable fields of the category with id.
	Update(ctx context.Context, id string, in Input, now time.Time) (*Category, error)
	Delete(ctx context.Context, id string) error
}

// byDisplayOrder sorts like MongoDB does on {metadata.displayOrder: 1, name: 1}.
func byDisplayOrder(list []Category) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Metadata.DisplayOrder, list[j].Metadata.DisplayOrder
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a < *b
		}
		return list[i].Name < list[j].Name
	})
}

type MemoryRepo struct {
	mu   sync.RWMutex
	list []Category
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (m *MemoryRepo) List(ctx context.Context) ([]Category, error) {
	m.mu.RLock()
	out := append([]Category{}, m.list...)
	m.mu.RUnlock()
	byDisplayOrder(out)
	return out, nil
}

// taken reports whether another category already uses name or slug.
func (m *MemoryRepo) taken(id, name, slug string) bool {
	for _, c := range m.list {
		if c.ID != id && (c.Name == name || c.Slug == slug) {
			return true
		}
	}
	return false
}

func (m *MemoryRepo) Insert(ctx context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if m.taken(c.ID, c.Name, c.Slug) {
		return ErrDuplicate
	}
	m.list = append(m.list, *c)
	return nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, in Input, now time.Time) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID != id {
			continue
		}
		if m.taken(id, in.Name, in.Slug) {
			return nil, ErrDuplicate
		}
		c := &m.list[i]
		c.Name, c.Slug, c.Description, c.Metadata = in.Name, in.Slug, in.Description, in.Metadata
		c.UpdatedAt = now
		out := *c
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
