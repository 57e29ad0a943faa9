package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/events"
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

// PostgresRepository stores patients in the relational database. Mutations
// run in a transaction together with their audit entry and outbox event.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const patientColumns = `id, name, age, gender, phone, email, address,
		emergency_contact, medical_history, allergies, current_medications,
		token, status, created_at, created_by, updated_at, updated_by, version`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(
		&p.ID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Email, &p.Address,
		&p.EmergencyContact, &p.MedicalHistory, &p.Allergies, &p.CurrentMedications,
		&p.Token, &p.Status, &p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy, &p.Version,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyStatus runs the version-checked status update inside the caller's
// transaction. Zero rows affected means a concurrent writer bumped the
// version first.
func ApplyStatus(ctx context.Context, q DB, upd StatusUpdate) error {
	query := `
		UPDATE patients
		SET status = $2, updated_at = $3, updated_by = $4, version = version + 1
		WHERE id = $1 AND version = $5
	`
	tag, err := q.Exec(ctx, query,
		upd.PatientID, upd.Status, upd.At, upd.ActorID, upd.ExpectedVersion,
	)
	if err != nil {
		return apperr.Transient("patients: apply status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("patient %s was modified concurrently", upd.PatientID)
	}
	return nil
}

// Create inserts the patient, its registration audit entry, and the
// registration event in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, p *Patient, entry *visits.Entry) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	entry.PatientID = p.ID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Transient("patients: begin create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO patients (id, name, age, gender, phone, email, address,
			emergency_contact, medical_history, allergies, current_medications,
			token, status, created_at, created_by, updated_at, updated_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $14, $15, 0)
	`
	if _, err := tx.Exec(ctx, query,
		p.ID, p.Name, p.Age, p.Gender, p.Phone, p.Email, p.Address,
		p.EmergencyContact, p.MedicalHistory, p.Allergies, p.CurrentMedications,
		p.Token, p.Status, p.CreatedAt, p.CreatedBy,
	); err != nil {
		return apperr.Transient("patients: insert", err)
	}

	if err := visits.Append(ctx, tx, entry); err != nil {
		return err
	}
	if err := events.Append(ctx, tx, events.TypePatientRegistered, events.PatientRegistered{
		PatientID: p.ID,
		Token:     p.Token,
		ActorID:   p.CreatedBy,
	}); err != nil {
		return apperr.Transient("patients: record event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("patients: commit create", err)
	}
	p.UpdatedAt = p.CreatedAt
	p.UpdatedBy = p.CreatedBy
	return nil
}

// UpdateStatus writes the status under a version check and appends the
// audit entry and event in the same transaction. Zero rows affected means
// a concurrent writer bumped the version first.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, upd StatusUpdate, entry *visits.Entry) (*Patient, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Transient("patients: begin status update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE patients
		SET status = $2, updated_at = $3, updated_by = $4, version = version + 1
		WHERE id = $1 AND version = $5
		RETURNING ` + patientColumns
	p, err := scanPatient(tx.QueryRow(ctx, query,
		upd.PatientID, upd.Status, upd.At, upd.ActorID, upd.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflictf("patient %s was modified concurrently", upd.PatientID)
		}
		return nil, apperr.Transient("patients: update status", err)
	}

	if err := visits.Append(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := events.Append(ctx, tx, events.TypePatientStatus, events.PatientStatusChanged{
		PatientID: upd.PatientID,
		Status:    string(upd.Status),
		ActorID:   upd.ActorID,
	}); err != nil {
		return nil, apperr.Transient("patients: record event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Transient("patients: commit status update", err)
	}
	return p, nil
}

// GetByID fetches a single patient.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	p, err := scanPatient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("patient %s not found", id)
		}
		return nil, apperr.Transient("patients: select by id", err)
	}
	return p, nil
}

// List returns patients newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, status *Status) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Transient("patients: query list", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
