package prescriptions

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/internal/visits"
)

// Repository persists prescriptions. Create writes the prescription, flips
// the patient to prescribed, and appends the audit entries as one atomic
// unit.
type Repository interface {
	Create(ctx context.Context, rx *Prescription, upd patients.StatusUpdate, entries []*visits.Entry) error
	ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error)
}

// InMemoryRepository keeps prescriptions in memory for tests, sharing the
// patient and visit stores so state changes are observable.
type InMemoryRepository struct {
	mu       sync.RWMutex
	rx       map[string]*Prescription
	patients *patients.InMemoryRepository
	visits   *visits.InMemoryRepository
}

func NewInMemoryRepository(patientRepo *patients.InMemoryRepository, visitLog *visits.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		rx:       make(map[string]*Prescription),
		patients: patientRepo,
		visits:   visitLog,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, rx *Prescription, upd patients.StatusUpdate, entries []*visits.Entry) error {
	if rx.ID == "" {
		rx.ID = uuid.NewString()
	}
	if len(entries) == 0 {
		panic("prescriptions: audit entries required")
	}

	// The first entry rides on the patient status write; the rest are
	// appended directly.
	if _, err := r.patients.UpdateStatus(ctx, upd, entries[0]); err != nil {
		return err
	}
	for _, entry := range entries[1:] {
		if err := r.visits.Append(ctx, entry); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := clone(rx)
	r.rx[rx.ID] = cp
	return nil
}

func (r *InMemoryRepository) ListByPatient(_ context.Context, patientID string) ([]*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Prescription
	for _, rx := range r.rx {
		if rx.PatientID == patientID {
			out = append(out, clone(rx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clone(rx *Prescription) *Prescription {
	cp := *rx
	cp.Medications = append([]Medication(nil), rx.Medications...)
	return &cp
}
