package billing

import (
	"strings"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// Status is the bill lifecycle state. Paid and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status string, tolerating case and whitespace.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusPaid, StatusCancelled:
		return s, nil
	default:
		return "", apperr.Validationf("unknown bill status %q", raw)
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// LineItem is a priced snapshot of a catalog service at billing time.
// Later catalog edits never change an issued bill.
type LineItem struct {
	ServiceID  string `json:"service_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
	TotalCents int64  `json:"total_cents"`
}

// Bill is an invoice for one patient visit.
type Bill struct {
	ID         string     `json:"id"`
	Number     string     `json:"number"`
	PatientID  string     `json:"patient_id"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Total      string     `json:"total"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UpdatedBy  string     `json:"updated_by"`
	Version    int64      `json:"-"`
}

// CreateBillRequest is the payload for issuing a bill. A zero quantity
// means one.
type CreateBillRequest struct {
	PatientID string            `json:"patient_id"`
	Items     []BillItemRequest `json:"items"`
}

type BillItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

func (r *CreateBillRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return apperr.Validationf("patient_id is required")
	}
	if len(r.Items) == 0 {
		return apperr.Validationf("a bill needs at least one line item")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.ServiceID) == "" {
			return apperr.Validationf("item %d: service_id is required", i)
		}
		if item.Quantity < 0 {
			return apperr.Validationf("item %d: quantity cannot be negative", i)
		}
	}
	return nil
}
