// Package patients owns the patient record and its status lifecycle.
package patients

import (
	"strings"
	"time"

	"github.com/medfront/clinicdesk/internal/apperr"
)

// Status is a patient's position in the visit pipeline.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusConsulted  Status = "consulted"
	StatusPrescribed Status = "prescribed"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a status string from the wire.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusWaiting, StatusConsulted, StatusPrescribed, StatusCompleted:
		return s, nil
	default:
		return "", apperr.Validationf("unknown patient status %q", raw)
	}
}

// transitions is the permitted-transition table. The front desk and the
// doctor both drive status through the generic update path, so every
// target is reachable from every state, including re-asserting the current
// one (which still lands in the audit trail). Tightening the pipeline is a
// matter of removing entries here.
var transitions = map[Status][]Status{
	StatusWaiting:    {StatusWaiting, StatusConsulted, StatusPrescribed, StatusCompleted},
	StatusConsulted:  {StatusWaiting, StatusConsulted, StatusPrescribed, StatusCompleted},
	StatusPrescribed: {StatusWaiting, StatusConsulted, StatusPrescribed, StatusCompleted},
	StatusCompleted:  {StatusWaiting, StatusConsulted, StatusPrescribed, StatusCompleted},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Patient is a registered patient record. Records are never hard-deleted.
type Patient struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Age                int       `json:"age"`
	Gender             string    `json:"gender"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email,omitempty"`
	Address            string    `json:"address,omitempty"`
	EmergencyContact   string    `json:"emergency_contact,omitempty"`
	MedicalHistory     string    `json:"medical_history,omitempty"`
	Allergies          string    `json:"allergies,omitempty"`
	CurrentMedications string    `json:"current_medications,omitempty"`
	Token              string    `json:"token"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	CreatedBy          string    `json:"created_by"`
	UpdatedAt          time.Time `json:"updated_at"`
	UpdatedBy          string    `json:"updated_by"`
	Version            int64     `json:"-"`
}

// RegisterPatientRequest is the front-desk registration form.
type RegisterPatientRequest struct {
	Name               string `json:"name"`
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Address            string `json:"address"`
	EmergencyContact   string `json:"emergency_contact"`
	MedicalHistory     string `json:"medical_history"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"current_medications"`
}

// Validate checks the required registration fields.
func (r *RegisterPatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validationf("name is required")
	}
	if r.Age <= 0 {
		return apperr.Validationf("age must be a positive number")
	}
	if strings.TrimSpace(r.Gender) == "" {
		return apperr.Validationf("gender is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return apperr.Validationf("phone is required")
	}
	return nil
}
