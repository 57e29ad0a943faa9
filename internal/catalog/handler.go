package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/identity"
	"github.com/medfront/clinicdesk/pkg/logging"
)

// Handler handles HTTP requests for the service catalog.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

func NewHandler(catalog *Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// Add handles POST /services.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var req AddServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.catalog.AddService(r.Context(), &req, actor)
	if err != nil {
		h.fail(w, r, err, "add service")
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

// ListActive handles GET /services.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	out, err := h.catalog.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, err, "list services")
		return
	}
	if out == nil {
		out = []*Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services": out,
		"count":    len(out),
	})
}

// Deactivate handles DELETE /services/{serviceID}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	if err := h.catalog.Deactivate(r.Context(), chi.URLParam(r, "serviceID"), actor); err != nil {
		h.fail(w, r, err, "deactivate service")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.logger.Error("catalog handler: "+op, "error", err, "path", r.URL.Path)
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
