package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/events"
)

// DB is the pgx surface the repository needs; pgxpool.Pool satisfies it and
// pgxmock stands in for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores bills in the relational database. Line items are
// a JSONB snapshot; mutations share a transaction with their outbox event.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("billing: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const billColumns = `id, number, patient_id, items, total_cents, status,
			created_at, created_by, updated_at, updated_by, version`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var items []byte
	if err := row.Scan(
		&b.ID, &b.Number, &b.PatientID, &items, &b.TotalCents, &b.Status,
		&b.CreatedAt, &b.CreatedBy, &b.UpdatedAt, &b.UpdatedBy, &b.Version,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &b.Items); err != nil {
		return nil, fmt.Errorf("billing: unmarshal items: %w", err)
	}
	return &b, nil
}

// Create inserts the bill and its creation event in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, b *Bill) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("billing: marshal items: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Transient("billing: begin create", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO bills (id, number, patient_id, items, total_cents, status,
			created_at, created_by, updated_at, updated_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $7, $8, 0)
	`
	if _, err := tx.Exec(ctx, query,
		b.ID, b.Number, b.PatientID, items, b.TotalCents, b.Status,
		b.CreatedAt, b.CreatedBy,
	); err != nil {
		return apperr.Transient("billing: insert", err)
	}

	if err := events.Append(ctx, tx, events.TypeBillCreated, events.BillCreated{
		BillID:     b.ID,
		BillNumber: b.Number,
		PatientID:  b.PatientID,
		TotalCents: b.TotalCents,
		ActorID:    b.CreatedBy,
	}); err != nil {
		return apperr.Transient("billing: record event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("billing: commit create", err)
	}
	b.UpdatedAt = b.CreatedAt
	b.UpdatedBy = b.CreatedBy
	return nil
}

// UpdateStatus writes the status under a version check and records the event
// in the same transaction. Zero rows affected means a concurrent writer
// bumped the version first.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, upd StatusUpdate) (*Bill, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Transient("billing: begin status update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE bills
		SET status = $2, updated_at = $3, updated_by = $4, version = version + 1
		WHERE id = $1 AND version = $5
		RETURNING ` + billColumns
	b, err := scanBill(tx.QueryRow(ctx, query,
		upd.BillID, upd.Status, upd.At, upd.ActorID, upd.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Conflictf("bill %s was modified concurrently", upd.BillID)
		}
		return nil, apperr.Transient("billing: update status", err)
	}

	if err := events.Append(ctx, tx, events.TypeBillStatus, events.BillStatusChanged{
		BillID:  upd.BillID,
		Status:  string(upd.Status),
		ActorID: upd.ActorID,
	}); err != nil {
		return nil, apperr.Transient("billing: record event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Transient("billing: commit status update", err)
	}
	return b, nil
}

// GetByID fetches a single bill.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	b, err := scanBill(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("bill %s not found", id)
		}
		return nil, apperr.Transient("billing: select by id", err)
	}
	return b, nil
}

// List returns bills newest first under the optional filter.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills`
	var args []any
	var where []string
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY created_at DESC`
	return r.queryBills(ctx, query, args...)
}

// ListBetween returns bills created in [start, end), newest first.
func (r *PostgresRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC`
	return r.queryBills(ctx, query, start, end)
}

func (r *PostgresRepository) queryBills(ctx context.Context, query string, args ...any) ([]*Bill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Transient("billing: query bills", err)
	}
	defer rows.Close()

	var out []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("billing: scan row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
