package catalog

import (
	"context"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/internal/money"
	"github.com/medfront/clinicdesk/pkg/logging"
	"github.com/medfront/clinicdesk/pkg/retry"
)

// ServiceConfig wires the catalog's collaborators. Cache is optional; with
// no cache every read goes to the repository.
type ServiceConfig struct {
	Repo        Repository
	Cache       *Cache
	Clock       clock.Clock
	Logger      *logging.Logger
	RepoTimeout time.Duration
	Retry       retry.Config
}

// Catalog manages the billable service list.
type Catalog struct {
	repo    Repository
	cache   *Cache
	clock   clock.Clock
	logger  *logging.Logger
	timeout time.Duration
	retry   retry.Config
}

func NewCatalog(cfg ServiceConfig) *Catalog {
	if cfg.Repo == nil {
		panic("catalog: repository required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.RepoTimeout <= 0 {
		cfg.RepoTimeout = 5 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	return &Catalog{
		repo:    cfg.Repo,
		cache:   cfg.Cache,
		clock:   cfg.Clock,
		logger:  cfg.Logger.WithComponent("catalog"),
		timeout: cfg.RepoTimeout,
		retry:   cfg.Retry,
	}
}

// AddService validates and persists a new active catalog entry.
func (c *Catalog) AddService(ctx context.Context, req *AddServiceRequest, actor identity.Actor) (*Service, error) {
	cents, err := req.Validate()
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  cents,
		Price:       money.FormatCents(cents),
		Category:    NormalizeCategory(req.Category),
		Active:      true,
		CreatedAt:   c.clock.Now(),
		CreatedBy:   actor.UserID,
	}

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.repo.Add(opCtx, svc); err != nil {
		c.logger.Error("failed to add service", "error", err, "name", req.Name)
		return nil, err
	}
	c.dropCache(ctx)

	c.logger.Info("service added",
		"service_id", svc.ID,
		"category", svc.Category,
		"price_cents", svc.PriceCents,
		"actor", actor.UserID,
	)
	return svc, nil
}

// ListActive returns active services alphabetically, serving from the cache
// when it holds a fresh copy.
func (c *Catalog) ListActive(ctx context.Context) ([]*Service, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.GetActive(ctx)
		if err != nil {
			c.logger.Warn("catalog cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	var out []*Service
	err := c.read(ctx, func(opCtx context.Context) error {
		var err error
		out, err = c.repo.ListActive(opCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, svc := range out {
		svc.Price = money.FormatCents(svc.PriceCents)
	}

	if c.cache != nil {
		if err := c.cache.SetActive(ctx, out); err != nil {
			c.logger.Warn("catalog cache write failed", "error", err)
		}
	}
	return out, nil
}

// GetByID fetches one service regardless of its active flag.
func (c *Catalog) GetByID(ctx context.Context, id string) (*Service, error) {
	var svc *Service
	err := c.read(ctx, func(opCtx context.Context) error {
		var err error
		svc, err = c.repo.GetByID(opCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.Price = money.FormatCents(svc.PriceCents)
	return svc, nil
}

// Deactivate soft-deletes a service and drops the cached list.
func (c *Catalog) Deactivate(ctx context.Context, id string, actor identity.Actor) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.repo.Deactivate(opCtx, id); err != nil {
		return err
	}
	c.dropCache(ctx)
	c.logger.Info("service deactivated", "service_id", id, "actor", actor.UserID)
	return nil
}

func (c *Catalog) dropCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx); err != nil {
		c.logger.Warn("catalog cache invalidation failed", "error", err)
	}
}

func (c *Catalog) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, c.retry,
		func(err error) bool { return apperr.Is(err, apperr.KindTransient) },
		func(ctx context.Context) error {
			opCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return fn(opCtx)
		})
}
