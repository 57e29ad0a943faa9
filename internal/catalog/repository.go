package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// Repository persists the service catalog.
type Repository interface {
	Add(ctx context.Context, svc *Service) error
	ListActive(ctx context.Context) ([]*Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
	Deactivate(ctx context.Context, id string) error
}

// InMemoryRepository keeps the catalog in memory for tests and local runs.
type InMemoryRepository struct {
	mu       sync.RWMutex
	services map[string]*Service
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{services: make(map[string]*Service)}
}

func (r *InMemoryRepository) Add(_ context.Context, svc *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListActive(_ context.Context) ([]*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Service
	for _, svc := range r.services {
		if svc.Active {
			cp := *svc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, apperr.NotFoundf("service %s not found", id)
	}
	cp := *svc
	return &cp, nil
}

func (r *InMemoryRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[id]
	if !ok {
		return apperr.NotFoundf("service %s not found", id)
	}
	svc.Active = false
	return nil
}
