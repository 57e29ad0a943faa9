package patients

import (
	"context"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/internal/observability/metrics"
	"github.com/medfront/clinicdesk/internal/visits"
	"github.com/medfront/clinicdesk/pkg/logging"
	"github.com/medfront/clinicdesk/pkg/retry"
)

// ServiceConfig wires the workflow's collaborators.
type ServiceConfig struct {
	Repo        Repository
	Visits      visits.Repository
	Clock       clock.Clock
	Tokens      clock.TokenSource
	Logger      *logging.Logger
	Metrics     *metrics.WorkflowMetrics
	RepoTimeout time.Duration
	Retry       retry.Config
}

// Service runs the patient workflow: registration, status transitions,
// listing, and the audit history read path.
type Service struct {
	repo    Repository
	visits  visits.Repository
	clock   clock.Clock
	tokens  clock.TokenSource
	logger  *logging.Logger
	metrics *metrics.WorkflowMetrics
	timeout time.Duration
	retry   retry.Config
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil {
		panic("patients: repository required")
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
		repo:    cfg.Repo,
		visits:  cfg.Visits,
		clock:   cfg.Clock,
		tokens:  cfg.Tokens,
		logger:  cfg.Logger.WithComponent("patients"),
		metrics: cfg.Metrics,
		timeout: cfg.RepoTimeout,
		retry:   cfg.Retry,
	}
}

// Register validates the form, issues a token, and persists the patient in
// waiting status together with its "registered" audit entry.
func (s *Service) Register(ctx context.Context, req *RegisterPatientRequest, actor identity.Actor) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &Patient{
		Name:               req.Name,
		Age:                req.Age,
		Gender:             req.Gender,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		EmergencyContact:   req.EmergencyContact,
		MedicalHistory:     req.MedicalHistory,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		Token:              s.tokens.PatientToken(),
		Status:             StatusWaiting,
		CreatedAt:          now,
		CreatedBy:          actor.UserID,
	}
	entry := visits.NewEntry(p.ID, actor.UserID, visits.ActionRegistered, now)

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(opCtx, p, entry); err != nil {
		s.logger.Error("failed to register patient", "error", err, "actor", actor.UserID)
		return nil, err
	}

	s.metrics.ObserveRegistration()
	s.logger.Info("patient registered",
		"patient_id", p.ID,
		"token", p.Token,
		"actor", actor.UserID,
	)
	return p, nil
}

// UpdateStatus moves a patient to newStatus and appends the matching audit
// entry. A transition to the current status is permitted and still audited.
func (s *Service) UpdateStatus(ctx context.Context, patientID string, newStatus Status, actor identity.Actor) (*Patient, error) {
	current, err := s.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, newStatus) {
		return nil, apperr.InvalidTransitionf("patient status %s cannot move to %s", current.Status, newStatus)
	}

	now := s.clock.Now()
	entry := visits.NewEntry(patientID, actor.UserID, visits.StatusChangeAction(string(newStatus)), now)
	upd := StatusUpdate{
		PatientID:       patientID,
		Status:          newStatus,
		ActorID:         actor.UserID,
		At:              now,
		ExpectedVersion: current.Version,
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	updated, err := s.repo.UpdateStatus(opCtx, upd, entry)
	if err != nil {
		s.logger.Error("failed to update patient status",
			"error", err,
			"patient_id", patientID,
			"status", newStatus,
			"actor", actor.UserID,
		)
		return nil, err
	}

	s.metrics.ObserveTransition(string(current.Status), string(newStatus))
	s.logger.Info("patient status updated",
		"patient_id", patientID,
		"from", current.Status,
		"to", newStatus,
		"actor", actor.UserID,
	)
	return updated, nil
}

// GetByID fetches a patient, retrying transient store failures.
func (s *Service) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	var p *Patient
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		p, err = s.repo.GetByID(opCtx, patientID)
		return err
	})
	return p, err
}

// List returns patients newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *Status) ([]*Patient, error) {
	var out []*Patient
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		out, err = s.repo.List(opCtx, status)
		return err
	})
	return out, err
}

// History returns the patient's audit trail, newest first.
func (s *Service) History(ctx context.Context, patientID string) ([]*visits.Entry, error) {
	if _, err := s.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	var entries []*visits.Entry
	err := s.read(ctx, func(opCtx context.Context) error {
		var err error
		entries, err = s.visits.ListByPatient(opCtx, patientID)
		return err
	})
	return entries, err
}

// read runs a repository read under the per-call timeout, retrying
// transient failures a bounded number of times.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retry,
		func(err error) bool { return apperr.Is(err, apperr.KindTransient) },
		func(ctx context.Context) error {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return fn(opCtx)
		})
}
