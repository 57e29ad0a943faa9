package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// DB is the pgx surface the repository needs; pgxpool.Pool satisfies it and
// pgxmock stands in for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the service catalog in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const serviceColumns = `id, name, description, price_cents, category, active, created_at, created_by`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	if err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.Category,
		&s.Active, &s.CreatedAt, &s.CreatedBy,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) Add(ctx context.Context, svc *Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	query := `
		INSERT INTO services (id, name, description, price_cents, category, active, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Exec(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.PriceCents, svc.Category,
		svc.Active, svc.CreatedAt, svc.CreatedBy,
	); err != nil {
		return apperr.Transient("catalog: insert service", err)
	}
	return nil
}

// ListActive returns active services in alphabetical order.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE active ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperr.Transient("catalog: query active services", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	s, err := scanService(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("service %s not found", id)
		}
		return nil, apperr.Transient("catalog: select service", err)
	}
	return s, nil
}

// Deactivate soft-deletes a service so existing bills keep resolving it.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE services SET active = false WHERE id = $1`, id)
	if err != nil {
		return apperr.Transient("catalog: deactivate service", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("service %s not found", id)
	}
	return nil
}
