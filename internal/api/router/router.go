package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medfront/clinicdesk/internal/billing"
	"github.com/medfront/clinicdesk/internal/catalog"
	httpmiddleware "github.com/medfront/clinicdesk/internal/http/middleware"
	"github.com/medfront/clinicdesk/internal/patients"
	"github.com/medfront/clinicdesk/internal/prescriptions"
	"github.com/medfront/clinicdesk/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	PatientsHandler      *patients.Handler
	PrescriptionsHandler *prescriptions.Handler
	CatalogHandler       *catalog.Handler
	BillingHandler       *billing.Handler
	MetricsHandler       http.Handler
	AuthSecret           string
	CORSAllowedOrigins   []string
	RateLimitPerSecond   float64
	RateLimitBurst       int
}

// New creates a chi router with all routes configured. Everything under
// /api requires a staff JWT; health and metrics stay public.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.Auth(cfg.AuthSecret))
		if cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		api.Route("/patients", func(r chi.Router) {
			r.Post("/", cfg.PatientsHandler.Register)
			r.Get("/", cfg.PatientsHandler.List)
			r.Route("/{patientID}", func(r chi.Router) {
				r.Get("/", cfg.PatientsHandler.Get)
				r.Patch("/status", cfg.PatientsHandler.UpdateStatus)
				r.Get("/visits", cfg.PatientsHandler.History)
				if cfg.PrescriptionsHandler != nil {
					r.Post("/prescriptions", cfg.PrescriptionsHandler.Add)
					r.Get("/prescriptions", cfg.PrescriptionsHandler.ListForPatient)
				}
			})
		})

		if cfg.CatalogHandler != nil {
			api.Route("/services", func(r chi.Router) {
				r.Post("/", cfg.CatalogHandler.Add)
				r.Get("/", cfg.CatalogHandler.ListActive)
				r.Delete("/{serviceID}", cfg.CatalogHandler.Deactivate)
			})
		}

		if cfg.BillingHandler != nil {
			api.Route("/bills", func(r chi.Router) {
				r.Post("/", cfg.BillingHandler.Create)
				r.Get("/", cfg.BillingHandler.List)
				r.Route("/{billID}", func(r chi.Router) {
					r.Get("/", cfg.BillingHandler.Get)
					r.Patch("/status", cfg.BillingHandler.UpdateStatus)
				})
			})
			api.Get("/reports/revenue", cfg.BillingHandler.Report)
		}
	})

	return r
}
