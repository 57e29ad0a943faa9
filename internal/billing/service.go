package billing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/catalog"
	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/internal/money"
	"github.com/medfront/clinicdesk/internal/observability/metrics"
	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/pkg/logging"
	"github.com/medfront/clinicdesk/pkg/retry"
)

var tracer trace.Tracer = otel.Tracer("clinicdesk/billing")

// CatalogReader resolves catalog services for price snapshots.
type CatalogReader interface {
	GetByID(ctx context.Context, id string) (*catalog.Service, error)
}

// PatientDirectory checks that a bill references a real patient.
type PatientDirectory interface {
	GetByID(ctx context.Context, patientID string) (*patients.Patient, error)
}

// ServiceConfig wires the ledger's collaborators.
type ServiceConfig struct {
	Repo        Repository
	Catalog     CatalogReader
	Patients    PatientDirectory
	Clock       clock.Clock
	Tokens      clock.TokenSource
	Logger      *logging.Logger
	Metrics     *metrics.BillingMetrics
	RepoTimeout time.Duration
	Retry       retry.Config
}

// Service runs the billing ledger: bill creation with price snapshots,
// terminal-guarded status changes, and revenue reporting.
type Service struct {
	repo     Repository
	catalog  CatalogReader
	patients PatientDirectory
	clock    clock.Clock
	tokens   clock.TokenSource
	logger   *logging.Logger
	metrics  *metrics.BillingMetrics
	timeout  time.Duration
	retry    retry.Config
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil {
		panic("billing: repository required")
	}
	if cfg.Catalog == nil {
		panic("billing: catalog reader required")
	}
	if cfg.Patients == nil {
		panic("billing: patient directory required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Tokens == nil {
		cfg.Tokens = clock.NewGenerator(cfg.Clock)
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
	return &Service{
		repo:     cfg.Repo,
		catalog:  cfg.Catalog,
		patients: cfg.Patients,
		clock:    cfg.Clock,
		tokens:   cfg.Tokens,
		logger:   cfg.Logger.WithComponent("billing"),
		metrics:  cfg.Metrics,
		timeout:  cfg.RepoTimeout,
		retry:    cfg.Retry,
	}
}

// CreateBill resolves each line item against the active catalog, snapshots
// names and prices, and persists the bill in pending status. Catalog edits
// after this point do not change the bill.
func (s *Service) CreateBill(ctx context.Context, req *CreateBillRequest, actor identity.Actor) (*Bill, error) {
	ctx, span := tracer.Start(ctx, "billing.CreateBill")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return nil, err
	}

	var items []LineItem
	var total int64
	for _, in := range req.Items {
		svc, err := s.catalog.GetByID(ctx, in.ServiceID)
		if err != nil {
			return nil, err
		}
		if !svc.Active {
			return nil, apperr.Validationf("service %s is no longer offered", svc.ID)
		}
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		line := LineItem{
			ServiceID:  svc.ID,
			Name:       svc.Name,
			Category:   svc.Category,
			PriceCents: svc.PriceCents,
			Quantity:   qty,
			TotalCents: svc.PriceCents * int64(qty),
		}
		items = append(items, line)
		total += line.TotalCents
	}

	now := s.clock.Now()
	b := &Bill{
		Number:     s.tokens.BillNumber(),
		PatientID:  req.PatientID,
		Items:      items,
		TotalCents: total,
		Total:      money.FormatCents(total),
		Status:     StatusPending,
		CreatedAt:  now,
		CreatedBy:  actor.UserID,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(opCtx, b); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to create bill", "error", err, "patient_id", req.PatientID)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("bill.number", b.Number),
		attribute.Int64("bill.total_cents", b.TotalCents),
	)
	s.metrics.ObserveBillCreated()
	s.logger.Info("bill created",
		"bill_id", b.ID,
		"number", b.Number,
		"patient_id", b.PatientID,
		"total_cents", b.TotalCents,
		"actor", actor.UserID,
	)
	return b, nil
}

// UpdateStatus moves a bill to newStatus. A pending bill can only settle
// to paid or cancelled; paid and cancelled bills are frozen.
func (s *Service) UpdateStatus(ctx context.Context, billID string, newStatus Status, actor identity.Actor) (*Bill, error) {
	if newStatus != StatusPaid && newStatus != StatusCancelled {
		return nil, apperr.InvalidTransitionf("bill status can only change to %s or %s", StatusPaid, StatusCancelled)
	}
	current, err := s.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, apperr.InvalidTransitionf("bill %s is %s and cannot change", billID, current.Status)
	}

	upd := StatusUpdate{
		BillID:          billID,
		Status:          newStatus,
		ActorID:         actor.UserID,
		At:              s.clock.Now(),
		ExpectedVersion: current.Version,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.repo.UpdateStatus(opCtx, upd)
	if err != nil {
		s.logger.Error("failed to update bill status",
			"error", err,
			"bill_id", billID,
			"status", newStatus,
			"actor", actor.UserID,
		)
		return nil, err
	}
	updated.Total = money.FormatCents(updated.TotalCents)

	s.metrics.ObserveBillStatus(string(newStatus), updated.TotalCents)
	s.logger.Info("bill status updated",
		"bill_id", billID,
		"from", current.Status,
		"to", newStatus,
		"actor", actor.UserID,
	)
	return updated, nil
}

// GetByID fetches a bill, retrying transient store failures.
func (s *Service) GetByID(ctx context.Context, billID string) (*Bill, error) {
	var b *Bill
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		b, err = s.repo.GetByID(opCtx, billID)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.Total = money.FormatCents(b.TotalCents)
	return b, nil
}

// List returns bills newest first under the optional filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*Bill, error) {
	var out []*Bill
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		out, err = s.repo.List(opCtx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, b := range out {
		b.Total = money.FormatCents(b.TotalCents)
	}
	return out, nil
}

// Report summarizes billing activity for bills created in [start, end).
// Revenue counts paid bills only; pending and cancelled totals are reported
// separately.
func (s *Service) Report(ctx context.Context, start, end time.Time) (*Report, error) {
	ctx, span := tracer.Start(ctx, "billing.Report")
	defer span.End()

	if !end.After(start) {
		return nil, apperr.Validationf("report period end must be after start")
	}

	var bills []*Bill
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		bills, err = s.repo.ListBetween(opCtx, start, end)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rep := &Report{
		Start:             start,
		End:               end,
		BillCount:         len(bills),
		RevenueByCategory: map[string]int64{},
	}
	for _, b := range bills {
		switch b.Status {
		case StatusPaid:
			rep.PaidCount++
			rep.RevenueCents += b.TotalCents
			for _, item := range b.Items {
				rep.RevenueByCategory[item.Category] += item.TotalCents
			}
		case StatusPending:
			rep.PendingCount++
			rep.OutstandingCents += b.TotalCents
		case StatusCancelled:
			rep.CancelledCount++
		}
	}
	rep.Revenue = money.FormatCents(rep.RevenueCents)
	rep.Outstanding = money.FormatCents(rep.OutstandingCents)

	span.SetAttributes(attribute.Int("report.bill_count", rep.BillCount))
	return rep, nil
}

// Report is the revenue summary for a period.
type Report struct {
	Start             time.Time        `json:"start"`
	End               time.Time        `json:"end"`
	BillCount         int              `json:"bill_count"`
	PaidCount         int              `json:"paid_count"`
	PendingCount      int              `json:"pending_count"`
	CancelledCount    int              `json:"cancelled_count"`
	RevenueCents      int64            `json:"revenue_cents"`
	Revenue           string           `json:"revenue"`
	OutstandingCents  int64            `json:"outstanding_cents"`
	Outstanding       string           `json:"outstanding"`
	RevenueByCategory map[string]int64 `json:"revenue_by_category"`
}

func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retry,
		func(err error) bool { return apperr.Is(err, apperr.KindTransient) },
		func(ctx context.Context) error {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return fn(opCtx)
		})
}
