// Package events records domain events in a transactional outbox and
// delivers them to the operational log sink in the background. The outbox
// insert shares the transaction of the write that produced the event, so
// the event stream and the primary state never diverge.
package events

// Event types emitted by the front-desk workflows.
const (
	TypePatientRegistered  = "patient.registered"
	TypePatientStatus      = "patient.status_changed"
	TypePrescriptionIssued = "prescription.issued"
	TypeBillCreated        = "bill.created"
	TypeBillStatus         = "bill.status_changed"
)

// PatientRegistered is the payload for TypePatientRegistered.
type PatientRegistered struct {
	PatientID string `json:"patient_id"`
	Token     string `json:"token"`
	ActorID   string `json:"actor_id"`
}

// PatientStatusChanged is the payload for TypePatientStatus.
type PatientStatusChanged struct {
	PatientID string `json:"patient_id"`
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
}

// PrescriptionIssued is the payload for TypePrescriptionIssued.
type PrescriptionIssued struct {
	PrescriptionID string `json:"prescription_id"`
	PatientID      string `json:"patient_id"`
	DoctorID       string `json:"doctor_id"`
}

// BillCreated is the payload for TypeBillCreated.
type BillCreated struct {
	BillID     string `json:"bill_id"`
	BillNumber string `json:"bill_number"`
	PatientID  string `json:"patient_id"`
	TotalCents int64  `json:"total_cents"`
	ActorID    string `json:"actor_id"`
}

// BillStatusChanged is the payload for TypeBillStatus.
type BillStatusChanged struct {
	BillID  string `json:"bill_id"`
	Status  string `json:"status"`
	ActorID string `json:"actor_id"`
}
