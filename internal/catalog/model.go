package catalog

import (
	"strings"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
	"github.com/medfront/clinicdesk/internal/money"
)

// Category buckets a billable service for reporting.
const (
	CategoryConsultation  = "consultation"
	CategoryTreatment     = "treatment"
	CategoryDiagnostic    = "diagnostic"
	CategoryMedicine      = "medicine"
	CategoryUncategorized = "uncategorized"
)

// NormalizeCategory maps free-form input onto the known category set. Any
// unrecognized value lands in "uncategorized" instead of failing the request.
func NormalizeCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CategoryConsultation:
		return CategoryConsultation
	case CategoryTreatment:
		return CategoryTreatment
	case CategoryDiagnostic:
		return CategoryDiagnostic
	case CategoryMedicine:
		return CategoryMedicine
	default:
		return CategoryUncategorized
	}
}

// Service is a billable catalog entry. Prices are stored in cents;
// deactivation is a soft delete so bills issued earlier keep resolving.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// AddServiceRequest is the payload for adding a catalog entry. Price arrives
// as a decimal string.
type AddServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

// Validate checks the request and returns the parsed price in cents.
func (r *AddServiceRequest) Validate() (int64, error) {
	if strings.TrimSpace(r.Name) == "" {
		return 0, apperr.Validationf("service name is required")
	}
	cents, err := money.ParseCents(r.Price)
	if err != nil {
		return 0, apperr.Validationf("service price %q is not a valid non-negative amount", r.Price)
	}
	return cents, nil
}
