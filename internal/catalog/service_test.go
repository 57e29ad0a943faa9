package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
)

var reception = identity.Actor{UserID: "reception-1", Role: "receptionist"}

func newTestCatalog(t *testing.T) (*Catalog, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	c := NewCatalog(ServiceConfig{
		Repo:  repo,
		Clock: clock.Fixed{T: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	})
	return c, repo
}

func TestAddServiceNormalizesAndActivates(t *testing.T) {
	c, _ := newTestCatalog(t)

	svc, err := c.AddService(context.Background(), &AddServiceRequest{
		Name: "Blood Panel", Price: "75.50", Category: "Diagnostic",
	}, reception)
	if err != nil {
		t.Fatalf("add service failed: %v", err)
	}
	if svc.PriceCents != 7550 || svc.Price != "75.50" {
		t.Fatalf("unexpected price: %+v", svc)
	}
	if svc.Category != CategoryDiagnostic || !svc.Active {
		t.Fatalf("unexpected service: %+v", svc)
	}
}

func TestAddServiceUnknownCategoryFallsBack(t *testing.T) {
	c, _ := newTestCatalog(t)
	svc, err := c.AddService(context.Background(), &AddServiceRequest{
		Name: "House Call", Price: "200", Category: "concierge",
	}, reception)
	if err != nil {
		t.Fatalf("add service failed: %v", err)
	}
	if svc.Category != CategoryUncategorized {
		t.Fatalf("expected uncategorized, got %s", svc.Category)
	}
}

func TestListActiveExcludesDeactivated(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()

	a, _ := c.AddService(ctx, &AddServiceRequest{Name: "Consultation", Price: "50", Category: "consultation"}, reception)
	b, _ := c.AddService(ctx, &AddServiceRequest{Name: "X-Ray", Price: "120", Category: "diagnostic"}, reception)

	if err := c.Deactivate(ctx, b.ID, reception); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	out, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != a.ID {
		t.Fatalf("expected only active service, got %+v", out)
	}

	// A deactivated service still resolves by id for old bills.
	got, err := c.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get deactivated failed: %v", err)
	}
	if got.Active {
		t.Fatal("expected service to be inactive")
	}
}

func TestDeactivateUnknownService(t *testing.T) {
	c, _ := newTestCatalog(t)
	err := c.Deactivate(context.Background(), "missing", reception)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListActiveUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := NewInMemoryRepository()
	c := NewCatalog(ServiceConfig{
		Repo:  repo,
		Cache: NewCache(client, time.Minute),
		Clock: clock.Fixed{T: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	})
	ctx := context.Background()

	svc, err := c.AddService(ctx, &AddServiceRequest{Name: "Consultation", Price: "50", Category: "consultation"}, reception)
	if err != nil {
		t.Fatalf("add service failed: %v", err)
	}

	first, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 service, got %d", len(first))
	}
	if !mr.Exists(activeKey) {
		t.Fatal("expected active list to be cached after a miss")
	}

	// Mutate the repo behind the cache's back: the stale cached copy is
	// served until a write invalidates it.
	if err := repo.Deactivate(ctx, svc.ID); err != nil {
		t.Fatalf("repo deactivate failed: %v", err)
	}
	second, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached copy with 1 service, got %d", len(second))
	}

	if _, err := c.AddService(ctx, &AddServiceRequest{Name: "X-Ray", Price: "120", Category: "diagnostic"}, reception); err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if mr.Exists(activeKey) {
		t.Fatal("expected cache invalidation after a write")
	}

	third, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("third list failed: %v", err)
	}
	if len(third) != 1 || third[0].Name != "X-Ray" {
		t.Fatalf("expected fresh list after invalidation, got %+v", third)
	}
}
