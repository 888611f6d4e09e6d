package trending

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores trending entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	// Trim deletes the oldest-created entries beyond max and returns how many went.
	Trim(ctx context.Context, max int) (int, error)
	// List returns entries by position, highest first.
	List(ctx context.Context) ([]Entry, error)
	// Upsert replaces blogId and position of the entry with e.ID, creating it when absent.
	Upsert(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepo keeps entries in insertion order.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (m *MemoryRepo) Insert(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *MemoryRepo) Trim(ctx context.Context, max int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	excess := len(m.entries) - max
	if excess <= 0 {
		return 0, nil
	}
	// oldest first; the stable sort keeps insertion order among equal timestamps
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].CreatedAt.Before(m.entries[j].CreatedAt)
	})
	m.entries = append([]Entry(nil), m.entries[excess:]...)
	return excess, nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	out := append([]Entry(nil), m.entries...)
	m.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position > out[j].Position })
	return out, nil
}

func (m *MemoryRepo) Upsert(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			m.entries[i].BlogID = e.BlogID
			m.entries[i].Position = e.Position
			m.entries[i].UpdatedAt = e.UpdatedAt
			*e = m.entries[i]
			return nil
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
