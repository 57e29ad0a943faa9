package patients

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/visits"
)

var patientCols = []string{
	"id", "name", "age", "gender", "phone", "email", "address",
	"emergency_contact", "medical_history", "allergies", "current_medications",
	"token", "status", "created_at", "created_by", "updated_at", "updated_by", "version",
}

func TestPostgresCreateIsTransactional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p := &Patient{
		Name: "Asha Rao", Age: 34, Gender: "female", Phone: "+15550100",
		Token: "TKN-1-AAAAAA", Status: StatusWaiting, CreatedAt: now, CreatedBy: "reception-1",
	}
	entry := visits.NewEntry("", "reception-1", visits.ActionRegistered, now)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "Asha Rao", 34, "female", "+15550100", "", "",
			"", "", "", "", "TKN-1-AAAAAA", StatusWaiting, now, "reception-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(entry.ID, pgxmock.AnyArg(), "reception-1", visits.ActionRegistered, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "patient.registered", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), p, entry); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.ID == "" || entry.PatientID != p.ID {
		t.Fatalf("expected assigned id on patient and entry, got %q / %q", p.ID, entry.PatientID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreateRollsBackOnAuditFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	now := time.Now().UTC()
	p := &Patient{Name: "x", Age: 1, Gender: "other", Phone: "1", Status: StatusWaiting, CreatedAt: now}
	entry := visits.NewEntry("", "u-1", visits.ActionRegistered, now)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "x", 1, "other", "1", "", "", "", "", "", "", "", StatusWaiting, now, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(entry.ID, pgxmock.AnyArg(), "u-1", visits.ActionRegistered, now).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err = repo.Create(context.Background(), p, entry)
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdateStatusVersionConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	now := time.Now().UTC()
	entry := visits.NewEntry("p-1", "doc-1", visits.StatusChangeAction("consulted"), now)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE patients").
		WithArgs("p-1", StatusConsulted, now, "doc-1", int64(3)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err = repo.UpdateStatus(context.Background(), StatusUpdate{
		PatientID: "p-1", Status: StatusConsulted, ActorID: "doc-1", At: now, ExpectedVersion: 3,
	}, entry)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdateStatusSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	now := time.Now().UTC()
	entry := visits.NewEntry("p-1", "doc-1", visits.StatusChangeAction("consulted"), now)

	row := pgxmock.NewRows(patientCols).AddRow(
		"p-1", "Asha Rao", 34, "female", "+15550100", "", "",
		"", "", "", "", "TKN-1-AAAAAA", StatusConsulted, now, "reception-1", now, "doc-1", int64(4),
	)
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE patients").
		WithArgs("p-1", StatusConsulted, now, "doc-1", int64(3)).
		WillReturnRows(row)
	mock.ExpectExec("INSERT INTO visits").
		WithArgs(entry.ID, "p-1", "doc-1", "status_changed_to_consulted", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "patient.status_changed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	p, err := repo.UpdateStatus(context.Background(), StatusUpdate{
		PatientID: "p-1", Status: StatusConsulted, ActorID: "doc-1", At: now, ExpectedVersion: 3,
	}, entry)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.Status != StatusConsulted || p.Version != 4 {
		t.Fatalf("unexpected patient: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	mock.ExpectQuery("SELECT").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestPostgresListFiltersByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	now := time.Now().UTC()
	rows := pgxmock.NewRows(patientCols).AddRow(
		"p-1", "Asha Rao", 34, "female", "+15550100", "", "",
		"", "", "", "", "TKN-1-AAAAAA", StatusWaiting, now, "reception-1", now, "reception-1", int64(0),
	)
	mock.ExpectQuery("SELECT").WithArgs(StatusWaiting).WillReturnRows(rows)

	waiting := StatusWaiting
	out, err := repo.List(context.Background(), &waiting)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != "p-1" {
		t.Fatalf("unexpected result: %+v", out)
	}
}
