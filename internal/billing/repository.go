package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// StatusUpdate carries a version-checked bill status change.
type StatusUpdate struct {
	BillID          string
	Status          Status
	ActorID         string
	At              time.Time
	ExpectedVersion int64
}

// Filter narrows a bill listing. Nil fields match everything.
type Filter struct {
	PatientID *string
	Status    *Status
}

// Repository persists bills.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	UpdateStatus(ctx context.Context, upd StatusUpdate) (*Bill, error)
	GetByID(ctx context.Context, id string) (*Bill, error)
	List(ctx context.Context, f Filter) ([]*Bill, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]*Bill, error)
}

// InMemoryRepository keeps bills in memory for tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	bills map[string]*Bill
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bills: make(map[string]*Bill)}
}

func (r *InMemoryRepository) Create(_ context.Context, b *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	cp := clone(b)
	r.bills[b.ID] = cp
	return nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, upd StatusUpdate) (*Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[upd.BillID]
	if !ok {
		return nil, apperr.NotFoundf("bill %s not found", upd.BillID)
	}
	if b.Version != upd.ExpectedVersion {
		return nil, apperr.Conflictf("bill %s was modified concurrently", upd.BillID)
	}
	b.Status = upd.Status
	b.UpdatedAt = upd.At
	b.UpdatedBy = upd.ActorID
	b.Version++
	return clone(b), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, apperr.NotFoundf("bill %s not found", id)
	}
	return clone(b), nil
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Bill
	for _, b := range r.bills {
		if f.PatientID != nil && b.PatientID != *f.PatientID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, clone(b))
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) ListBetween(_ context.Context, start, end time.Time) ([]*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Bill
	for _, b := range r.bills {
		if b.CreatedAt.Before(start) || !b.CreatedAt.Before(end) {
			continue
		}
		out = append(out, clone(b))
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(bills []*Bill) {
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].CreatedAt.After(bills[j].CreatedAt)
	})
}

func clone(b *Bill) *Bill {
	cp := *b
	cp.Items = append([]LineItem(nil), b.Items...)
	return &cp
}
