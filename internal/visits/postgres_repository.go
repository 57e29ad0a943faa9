package visits

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// DB is the narrow pgx surface the repository needs. Both pgxpool.Pool and
// pgx.Tx satisfy it, so appends can ride inside a caller's transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Append inserts one audit row through q. Exported at SQL level so sibling
// repositories can include the insert in their own transactions.
func Append(ctx context.Context, q DB, entry *Entry) error {
	query := `
		INSERT INTO visits (id, patient_id, user_id, action, ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.Exec(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.UserID,
		entry.Action,
		entry.Timestamp,
	); err != nil {
		return apperr.Transient("visits: insert entry", err)
	}
	return nil
}

// PostgresRepository stores audit entries in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("visits: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// newPostgresRepositoryWithDB allows injecting a mock database for testing.
func newPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *Entry) error {
	return Append(ctx, r.db, entry)
}

// ListByPatient returns the patient's entries newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*Entry, error) {
	query := `
		SELECT id, patient_id, user_id, action, ts
		FROM visits
		WHERE patient_id = $1
		ORDER BY ts DESC
	`
	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, apperr.Transient("visits: query entries", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.UserID, &e.Action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("visits: scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
