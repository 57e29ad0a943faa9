package prescriptions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/events"
	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/internal/visits"
)

// DB is the pgx surface the repository needs; pgxpool.Pool satisfies it and
// pgxmock stands in for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores prescriptions in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("prescriptions: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create writes the prescription, the version-checked patient status flip,
// both audit entries, and the issued event in a single transaction. If any
// piece fails, none of it happened.
func (r *PostgresRepository) Create(ctx context.Context, rx *Prescription, upd patients.StatusUpdate, entries []*visits.Entry) error {
	if rx.ID == "" {
		rx.ID = uuid.NewString()
	}
	meds, err := json.Marshal(rx.Medications)
	if err != nil {
		return fmt.Errorf("prescriptions: marshal medications: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Transient("prescriptions: begin create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO prescriptions (id, patient_id, doctor_id, diagnosis, symptoms,
			medications, lab_tests, notes, follow_up, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.Exec(ctx, query,
		rx.ID, rx.PatientID, rx.DoctorID, rx.Diagnosis, rx.Symptoms,
		meds, rx.LabTests, rx.Notes, rx.FollowUp, rx.Status, rx.CreatedAt,
	); err != nil {
		return apperr.Transient("prescriptions: insert", err)
	}

	if err := patients.ApplyStatus(ctx, tx, upd); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := visits.Append(ctx, tx, entry); err != nil {
			return err
		}
	}
	if err := events.Append(ctx, tx, events.TypePrescriptionIssued, events.PrescriptionIssued{
		PrescriptionID: rx.ID,
		PatientID:      rx.PatientID,
		DoctorID:       rx.DoctorID,
	}); err != nil {
		return apperr.Transient("prescriptions: record event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("prescriptions: commit create", err)
	}
	return nil
}

// ListByPatient returns the patient's prescriptions newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	query := `
		SELECT id, patient_id, doctor_id, diagnosis, symptoms, medications,
			lab_tests, notes, follow_up, status, created_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, apperr.Transient("prescriptions: query list", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		var rx Prescription
		var meds []byte
		if err := rows.Scan(
			&rx.ID, &rx.PatientID, &rx.DoctorID, &rx.Diagnosis, &rx.Symptoms,
			&meds, &rx.LabTests, &rx.Notes, &rx.FollowUp, &rx.Status, &rx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("prescriptions: scan row: %w", err)
		}
		if err := json.Unmarshal(meds, &rx.Medications); err != nil {
			return nil, fmt.Errorf("prescriptions: unmarshal medications: %w", err)
		}
		out = append(out, &rx)
	}
	return out, rows.Err()
}
