package patients

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for the patient workflow.
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

// Register handles POST /patients.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var req RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Register(r.Context(), &req, actor)
	if err != nil {
		h.fail(w, r, err, "register patient")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /patients with an optional ?status= filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := ParseStatus(raw)
		if err != nil {
			h.fail(w, r, err, "parse status filter")
			return
		}
		status = &s
	}

	out, err := h.svc.List(r.Context(), status)
	if err != nil {
		h.fail(w, r, err, "list patients")
		return
	}
	if out == nil {
		out = []*Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patients": out,
		"count":    len(out),
	})
}

// Get handles GET /patients/{patientID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.fail(w, r, err, "get patient")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateStatus handles PATCH /patients/{patientID}/status.
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

	p, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "patientID"), status, actor)
	if err != nil {
		h.fail(w, r, err, "update patient status")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// History handles GET /patients/{patientID}/visits.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.fail(w, r, err, "patient history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"visits": entries,
		"count":  len(entries),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error("patients handler: "+op, "error", err, "path", r.URL.Path)
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
