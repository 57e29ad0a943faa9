package patients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/clock"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/internal/visits"
	"github.com/medfront/clinicdesk/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	visitLog := visits.NewInMemoryRepository()
	svc := NewService(ServiceConfig{
		Repo:   NewInMemoryRepository(visitLog),
		Visits: visitLog,
		Clock:  clock.Fixed{T: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		Tokens: &seqTokens{},
	})
	return NewHandler(svc, logging.Default()), svc
}

func withActor(r *http.Request) *http.Request {
	ctx := identity.WithActor(r.Context(), identity.Actor{UserID: "reception-1", Role: "receptionist"})
	return r.WithContext(ctx)
}

func TestHandlerRegisterSuccess(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(RegisterPatientRequest{
		Name: "Asha Rao", Age: 34, Gender: "female", Phone: "+15550100",
	})
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body)))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var p Patient
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Status != StatusWaiting || p.Token == "" {
		t.Fatalf("unexpected patient: %+v", p)
	}
}

func TestHandlerRegisterMissingActor(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(RegisterPatientRequest{Name: "x", Age: 1, Gender: "m", Phone: "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestHandlerRegisterValidationError(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(RegisterPatientRequest{Name: ""})
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewReader(body)))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlerUpdateStatusAndGet(t *testing.T) {
	handler, svc := newTestHandler(t)
	p, err := svc.Register(context.Background(), &RegisterPatientRequest{
		Name: "Asha Rao", Age: 34, Gender: "female", Phone: "+15550100",
	}, identity.Actor{UserID: "reception-1"})
	if err != nil {
		t.Fatalf("seed register failed: %v", err)
	}

	r := chi.NewRouter()
	r.Patch("/api/patients/{patientID}/status", handler.UpdateStatus)
	r.Get("/api/patients/{patientID}", handler.Get)

	body := bytes.NewReader([]byte(`{"status":"consulted"}`))
	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/patients/"+p.ID+"/status", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	req = withActor(httptest.NewRequest(http.MethodGet, "/api/patients/"+p.ID, nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var got Patient
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != StatusConsulted {
		t.Fatalf("expected consulted, got %s", got.Status)
	}
}

func TestHandlerUpdateStatusUnknownPatient(t *testing.T) {
	handler, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Patch("/api/patients/{patientID}/status", handler.UpdateStatus)

	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/patients/missing/status",
		bytes.NewReader([]byte(`{"status":"consulted"}`))))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandlerListWithFilter(t *testing.T) {
	handler, svc := newTestHandler(t)
	_, _ = svc.Register(context.Background(), &RegisterPatientRequest{
		Name: "Asha Rao", Age: 34, Gender: "female", Phone: "+15550100",
	}, identity.Actor{UserID: "reception-1"})

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/patients?status=waiting", nil))
	w := httptest.NewRecorder()
	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Patients []*Patient `json:"patients"`
		Count    int        `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 patient, got %d", resp.Count)
	}

	req = withActor(httptest.NewRequest(http.MethodGet, "/api/patients?status=bogus", nil))
	w = httptest.NewRecorder()
	handler.List(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for bogus filter, got %d", w.Code)
	}
}
