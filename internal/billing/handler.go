package billing

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for the billing ledger.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /bills.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.svc.CreateBill(r.Context(), &req, actor)
	if err != nil {
		h.fail(w, r, err, "create bill")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Get handles GET /bills/{billID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "billID"))
	if err != nil {
		h.fail(w, r, err, "get bill")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// List handles GET /bills with optional ?patient_id= and ?status= filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f Filter
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		f.PatientID = &raw
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			h.fail(w, r, err, "parse status filter")
			return
		}
		f.Status = &status
	}

	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "list bills")
		return
	}
	if out == nil {
		out = []*Bill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bills": out,
		"count": len(out),
	})
}

// UpdateStatus handles PATCH /bills/{billID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := ParseStatus(body.Status)
	if err != nil {
		h.fail(w, r, err, "parse status")
		return
	}

	b, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "billID"), status, actor)
	if err != nil {
		h.fail(w, r, err, "update bill status")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Report handles GET /reports/revenue?start=YYYY-MM-DD&end=YYYY-MM-DD.
// The end date is inclusive; RFC 3339 timestamps are accepted as well and
// are treated as an exclusive upper bound.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	start, err := parsePeriodBound(r.URL.Query().Get("start"), false)
	if err != nil {
		h.fail(w, r, err, "parse report start")
		return
	}
	end, err := parsePeriodBound(r.URL.Query().Get("end"), true)
	if err != nil {
		h.fail(w, r, err, "parse report end")
		return
	}

	rep, err := h.svc.Report(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err, "revenue report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func parsePeriodBound(raw string, isEnd bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.Validationf("start and end dates are required")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if isEnd {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date %q, want YYYY-MM-DD or RFC 3339", raw)
	}
	return t, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error("billing handler: "+op, "error", err, "path", r.URL.Path)
	writeError(w, apperr.HTTPStatus(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
