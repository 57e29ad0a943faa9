package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/pkg/logging"
)

func withActor(r *http.Request) *http.Request {
	ctx := identity.WithActor(r.Context(), cashier)
	return r.WithContext(ctx)
}

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc := newTestService(t)
	return NewHandler(svc, logging.Default()), svc
}

func TestHandlerCreateBill(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, _ := json.Marshal(CreateBillRequest{
		PatientID: "p-1",
		Items:     []BillItemRequest{{ServiceID: "svc-consult", Quantity: 2}},
	})
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var b Bill
	if err := json.NewDecoder(w.Body).Decode(&b); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if b.Total != "200.00" || b.Status != StatusPending {
		t.Fatalf("unexpected bill: %+v", b)
	}
}

func TestHandlerCreateBillMissingActor(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestHandlerUpdateStatusTerminalConflict(t *testing.T) {
	handler, svc := newTestHandler(t)
	ctx := context.Background()
	b, err := svc.CreateBill(ctx, &CreateBillRequest{
		PatientID: "p-1", Items: []BillItemRequest{{ServiceID: "svc-xray"}},
	}, cashier)
	if err != nil {
		t.Fatalf("seed bill failed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, b.ID, StatusPaid, cashier); err != nil {
		t.Fatalf("pay bill failed: %v", err)
	}

	r := chi.NewRouter()
	r.Patch("/api/bills/{billID}/status", handler.UpdateStatus)

	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/bills/"+b.ID+"/status",
		bytes.NewReader([]byte(`{"status":"cancelled"}`))))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
}

func TestHandlerReportParsesDates(t *testing.T) {
	handler, svc := newTestHandler(t)
	ctx := context.Background()
	b, _ := svc.CreateBill(ctx, &CreateBillRequest{
		PatientID: "p-1", Items: []BillItemRequest{{ServiceID: "svc-consult"}},
	}, cashier)
	if _, err := svc.UpdateStatus(ctx, b.ID, StatusPaid, cashier); err != nil {
		t.Fatalf("pay bill failed: %v", err)
	}

	req := withActor(httptest.NewRequest(http.MethodGet,
		"/api/reports/revenue?start=2025-06-01&end=2025-06-01", nil))
	w := httptest.NewRecorder()
	handler.Report(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var rep Report
	if err := json.NewDecoder(w.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if rep.PaidCount != 1 || rep.Revenue != "100.00" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestHandlerReportMissingDates(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/reports/revenue", nil))
	w := httptest.NewRecorder()
	handler.Report(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlerListBadStatusFilter(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/bills?status=unknown", nil))
	w := httptest.NewRecorder()
	handler.List(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
