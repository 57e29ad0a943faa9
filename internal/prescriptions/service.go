package prescriptions

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/internal/observability/metrics"
	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/internal/visits"
	"github.com/medfront/clinicdesk/pkg/logging"
	"github.com/medfront/clinicdesk/pkg/retry"
)

var tracer trace.Tracer = otel.Tracer("clinicdesk/prescriptions")

// PatientDirectory reads the patient a prescription attaches to.
type PatientDirectory interface {
	GetByID(ctx context.Context, patientID string) (*patients.Patient, error)
}

// ServiceConfig wires the prescription record's collaborators.
type ServiceConfig struct {
	Repo        Repository
	Patients    PatientDirectory
	Clock       clock.Clock
	Logger      *logging.Logger
	Metrics     *metrics.WorkflowMetrics
	RepoTimeout time.Duration
	Retry       retry.Config
}

// Service keeps the append-only prescription record. Issuing a prescription
// also moves the patient to prescribed status.
type Service struct {
	repo     Repository
	patients PatientDirectory
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *metrics.WorkflowMetrics
	timeout  time.Duration
	retry    retry.Config
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil {
		panic("prescriptions: repository required")
	}
	if cfg.Patients == nil {
		panic("prescriptions: patient directory required")
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
	return &Service{
		repo:     cfg.Repo,
		patients: cfg.Patients,
		clock:    cfg.Clock,
		logger:   cfg.Logger.WithComponent("prescriptions"),
		metrics:  cfg.Metrics,
		timeout:  cfg.RepoTimeout,
		retry:    cfg.Retry,
	}
}

// Add validates the draft and persists the prescription together with the
// patient's move to prescribed status. Nothing is stored when validation
// fails.
func (s *Service) Add(ctx context.Context, patientID string, req *AddPrescriptionRequest, actor identity.Actor) (*Prescription, error) {
	ctx, span := tracer.Start(ctx, "prescriptions.Add")
	defer span.End()

	meds, err := req.Validate()
	if err != nil {
		return nil, err
	}

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !patients.CanTransition(patient.Status, patients.StatusPrescribed) {
		return nil, apperr.InvalidTransitionf("patient status %s cannot move to %s",
			patient.Status, patients.StatusPrescribed)
	}

	now := s.clock.Now()
	rx := &Prescription{
		PatientID:   patientID,
		DoctorID:    actor.UserID,
		Diagnosis:   req.Diagnosis,
		Symptoms:    req.Symptoms,
		Medications: meds,
		LabTests:    req.LabTests,
		Notes:       req.Notes,
		FollowUp:    req.FollowUp,
		Status:      StatusActive,
		CreatedAt:   now,
	}
	upd := patients.StatusUpdate{
		PatientID:       patientID,
		Status:          patients.StatusPrescribed,
		ActorID:         actor.UserID,
		At:              now,
		ExpectedVersion: patient.Version,
	}
	entries := []*visits.Entry{
		visits.NewEntry(patientID, actor.UserID, visits.StatusChangeAction(string(patients.StatusPrescribed)), now),
		visits.NewEntry(patientID, actor.UserID, visits.ActionPrescribed, now),
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(opCtx, rx, upd, entries); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to add prescription",
			"error", err,
			"patient_id", patientID,
			"actor", actor.UserID,
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("prescription.id", rx.ID),
		attribute.Int("prescription.medications", len(meds)),
	)
	s.metrics.ObserveTransition(string(patient.Status), string(patients.StatusPrescribed))
	s.logger.Info("prescription added",
		"prescription_id", rx.ID,
		"patient_id", patientID,
		"medications", len(meds),
		"actor", actor.UserID,
	)
	return rx, nil
}

// ListForPatient returns the patient's prescriptions newest first.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	var out []*Prescription
	err := retry.Do(ctx, s.retry,
		func(err error) bool { return apperr.Is(err, apperr.KindTransient) },
		func(ctx context.Context) error {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			var err error
			out, err = s.repo.ListByPatient(opCtx, patientID)
			return err
		})
	return out, err
}
