package prescriptions

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for prescriptions.
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

// Add handles POST /patients/{patientID}/prescriptions.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var req AddPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rx, err := h.svc.Add(r.Context(), chi.URLParam(r, "patientID"), &req, actor)
	if err != nil {
		h.fail(w, r, err, "add prescription")
		return
	}
	writeJSON(w, http.StatusCreated, rx)
}

// ListForPatient handles GET /patients/{patientID}/prescriptions.
func (h *Handler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListForPatient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.fail(w, r, err, "list prescriptions")
		return
	}
	if out == nil {
		out = []*Prescription{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prescriptions": out,
		"count":         len(out),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error("prescriptions handler: "+op, "error", err, "path", r.URL.Path)
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
