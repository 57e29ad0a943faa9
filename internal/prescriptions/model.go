package prescriptions

import (
	"strings"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// Medication is one row on a prescription. A row is complete when it names
// the drug, the dosage, how often to take it, and for how long.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// IsComplete reports whether the row carries enough to dispense.
func (m Medication) IsComplete() bool {
	return strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Dosage) != "" &&
		strings.TrimSpace(m.Frequency) != "" &&
		strings.TrimSpace(m.Duration) != ""
}

// StatusActive is the only prescription status; records are never revoked.
const StatusActive = "active"

// Prescription is an issued prescription. Records are append-only: there is
// no update or delete path.
type Prescription struct {
	ID          string       `json:"id"`
	PatientID   string       `json:"patient_id"`
	DoctorID    string       `json:"doctor_id"`
	Diagnosis   string       `json:"diagnosis"`
	Symptoms    string       `json:"symptoms"`
	Medications []Medication `json:"medications"`
	LabTests    string       `json:"lab_tests,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	FollowUp    string       `json:"follow_up,omitempty"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AddPrescriptionRequest is the payload for issuing a prescription.
type AddPrescriptionRequest struct {
	Diagnosis   string       `json:"diagnosis"`
	Symptoms    string       `json:"symptoms"`
	Medications []Medication `json:"medications"`
	LabTests    string       `json:"lab_tests"`
	Notes       string       `json:"notes"`
	FollowUp    string       `json:"follow_up"`
}

// Validate checks the draft and returns only the complete medication rows.
// Half-filled rows are dropped silently; a draft with no complete row at
// all is rejected.
func (r *AddPrescriptionRequest) Validate() ([]Medication, error) {
	if strings.TrimSpace(r.Diagnosis) == "" {
		return nil, apperr.Validationf("diagnosis is required")
	}
	if strings.TrimSpace(r.Symptoms) == "" {
		return nil, apperr.Validationf("symptoms are required")
	}

	var complete []Medication
	for _, m := range r.Medications {
		if m.IsComplete() {
			complete = append(complete, m)
		}
	}
	if len(complete) == 0 {
		return nil, apperr.Validationf("a prescription needs at least one complete medication")
	}
	return complete, nil
}
