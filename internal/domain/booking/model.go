package booking

import (
	"time"

	"github.com/google/uuid"
)

// Slot maps to the slot table. A slot is a fixed-length bookable unit of a
// doctor's time. PatientID is nil while the slot is open; it is assigned
// exactly once when the slot is booked. Version increments on every
// successful mutation and backs the optimistic concurrency check.
type Slot struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	DoctorID  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Version   int        `db:"version" json:"version"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the slot has no occupant.
func (s *Slot) Open() bool { return s.PatientID == nil }
