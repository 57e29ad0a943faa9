// Package visits keeps the append-only audit trail of actions taken
// against a patient. Entries are never updated or deleted; the ascending
// sequence for a patient reconstructs every status the patient ever held.
package visits

import (
	"time"

	"github.com/google/uuid"
)

// Well-known actions recorded by the workflow.
const (
	ActionRegistered   = "registered"
	ActionPrescribed   = "prescribed"
	statusChangePrefix = "status_changed_to_"
)

// StatusChangeAction returns the audit action for a transition to status.
func StatusChangeAction(status string) string {
	return statusChangePrefix + status
}

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry builds an entry with a fresh id.
func NewEntry(patientID, userID, action string, at time.Time) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		PatientID: patientID,
		UserID:    userID,
		Action:    action,
		Timestamp: at,
	}
}
