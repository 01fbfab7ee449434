// Package records is the authoritative store for clinic data: patient and
// incident (appointment/treatment) collections, their referential-integrity
// rules, and the pure query functions every view is built on. Collections are
// held in memory, hydrated from and flushed to a storage.KV backend as whole
// JSON documents.
package records

import "time"

// Status enumerates the incident lifecycle states.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PatientRef is a reference to a Patient by id. Resolution is tolerant: a ref
// whose patient no longer exists is kept and rendered as unknown, never
// rejected or auto-deleted.
type PatientRef string

// Patient is a clinic patient record. The JSON shape is the persisted layout
// under the "patients" key; future fields must be additive and
// default-tolerant on read.
type Patient struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth"`
	Contact     string    `json:"contactNumber"`
	Email       string    `json:"email"`
	HealthInfo  string    `json:"healthInfo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Attachment is an opaque file reference produced by the upload layer and
// stored as-is; the store never inspects the content.
type Attachment struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType"`
	ContentRef string `json:"contentRef"`
}

// Incident is an appointment/treatment record linked to a patient.
type Incident struct {
	ID                string       `json:"id"`
	PatientID         PatientRef   `json:"patientId"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Comments          string       `json:"comments,omitempty"`
	TreatmentNotes    string       `json:"treatmentNotes,omitempty"`
	AppointmentAt     time.Time    `json:"appointmentDateTime"`
	NextAppointmentAt *time.Time   `json:"nextAppointmentDateTime,omitempty"`
	// Cost is nil when no cost has been recorded, which is distinct from a
	// recorded cost of zero. Sums treat nil as zero; per-record rendering
	// shows it as absent.
	Cost        *float64     `json:"cost,omitempty"`
	Status      Status       `json:"status"`
	Attachments []Attachment `json:"attachments"`
}

// PatientInput carries the caller-supplied fields for a new patient. The
// store does not validate shape or required fields; that is the form layer's
// responsibility.
type PatientInput struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Contact     string `json:"contactNumber"`
	Email       string `json:"email"`
	HealthInfo  string `json:"healthInfo"`
}

// PatientPatch is a partial update; nil fields are left untouched. ID and
// CreatedAt are not patchable.
type PatientPatch struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"dateOfBirth"`
	Contact     *string `json:"contactNumber"`
	Email       *string `json:"email"`
	HealthInfo  *string `json:"healthInfo"`
}

// IncidentInput carries the caller-supplied fields for a new incident.
type IncidentInput struct {
	PatientID         PatientRef   `json:"patientId"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Comments          string       `json:"comments"`
	TreatmentNotes    string       `json:"treatmentNotes"`
	AppointmentAt     time.Time    `json:"appointmentDateTime"`
	NextAppointmentAt *time.Time   `json:"nextAppointmentDateTime"`
	Cost              *float64     `json:"cost"`
	Status            Status       `json:"status"`
	Attachments       []Attachment `json:"attachments"`
}

// IncidentPatch is a partial update; nil fields are left untouched. A nil
// here always means "keep", so a patch cannot clear an optional field such
// as Cost or NextAppointmentAt back to absent; that would need a distinct
// sentinel and no caller has asked for it.
type IncidentPatch struct {
	PatientID         *PatientRef   `json:"patientId"`
	Title             *string       `json:"title"`
	Description       *string       `json:"description"`
	Comments          *string       `json:"comments"`
	TreatmentNotes    *string       `json:"treatmentNotes"`
	AppointmentAt     *time.Time    `json:"appointmentDateTime"`
	NextAppointmentAt *time.Time    `json:"nextAppointmentDateTime"`
	Cost              *float64      `json:"cost"`
	Status            *Status       `json:"status"`
	Attachments       *[]Attachment `json:"attachments"`
}

func clonePatients(src []Patient) []Patient {
	out := make([]Patient, len(src))
	copy(out, src)
	return out
}

func cloneIncidents(src []Incident) []Incident {
	out := make([]Incident, len(src))
	for i, inc := range src {
		out[i] = cloneIncident(inc)
	}
	return out
}

func cloneIncident(inc Incident) Incident {
	if inc.NextAppointmentAt != nil {
		next := *inc.NextAppointmentAt
		inc.NextAppointmentAt = &next
	}
	if inc.Cost != nil {
		cost := *inc.Cost
		inc.Cost = &cost
	}
	if inc.Attachments != nil {
		atts := make([]Attachment, len(inc.Attachments))
		copy(atts, inc.Attachments)
		inc.Attachments = atts
	}
	return inc
}
