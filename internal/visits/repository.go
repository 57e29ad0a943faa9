package visits

import (
	"context"
	"sort"
	"sync"
)

// Repository stores audit entries.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByPatient(ctx context.Context, patientID string) ([]*Entry, error)
}

// InMemoryRepository backs service tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Append stores a copy of the entry.
func (r *InMemoryRepository) Append(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

// ListByPatient returns the patient's entries newest first.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Entry
	for _, e := range r.entries {
		if e.PatientID == patientID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// All returns every stored entry in append order. Test helper.
func (r *InMemoryRepository) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
