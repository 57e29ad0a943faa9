package patients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/visits"
)

// StatusUpdate carries one status write. ExpectedVersion makes the write
// optimistic: a mismatch means another actor got there first.
type StatusUpdate struct {
	PatientID       string
	Status          Status
	ActorID         string
	At              time.Time
	ExpectedVersion int64
}

// Repository stores patients. Create and UpdateStatus persist the record
// and its audit entry as one atomic unit.
type Repository interface {
	Create(ctx context.Context, p *Patient, entry *visits.Entry) error
	UpdateStatus(ctx context.Context, upd StatusUpdate, entry *visits.Entry) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, status *Status) ([]*Patient, error)
}

// InMemoryRepository is the test double. It shares a visits repository so
// tests can assert on the audit trail.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	visits   *visits.InMemoryRepository
}

func NewInMemoryRepository(visitLog *visits.InMemoryRepository) *InMemoryRepository {
	if visitLog == nil {
		visitLog = visits.NewInMemoryRepository()
	}
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
		visits:   visitLog,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, p *Patient, entry *visits.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	entry.PatientID = p.ID
	cp := *p
	r.patients[p.ID] = &cp
	return r.visits.Append(ctx, entry)
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, upd StatusUpdate, entry *visits.Entry) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[upd.PatientID]
	if !ok {
		return nil, apperr.NotFoundf("patient %s not found", upd.PatientID)
	}
	if p.Version != upd.ExpectedVersion {
		return nil, apperr.Conflictf("patient %s was modified concurrently", upd.PatientID)
	}
	p.Status = upd.Status
	p.UpdatedAt = upd.At
	p.UpdatedBy = upd.ActorID
	p.Version++
	if err := r.visits.Append(ctx, entry); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, apperr.NotFoundf("patient %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) List(ctx context.Context, status *Status) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Patient
	for _, p := range r.patients {
		if status != nil && p.Status != *status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
