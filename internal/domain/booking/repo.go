package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotRepository is the durable keyed store of slots. It owns all
// synchronization: CompareAndSwap is the single primitive through which
// occupancy is mutated, and it must behave as an atomic check-and-set at the
// storage layer so no interleaving of two concurrent callers can both
// observe success against the same expected version.
type SlotRepository interface {
	// InsertAll persists new slots, assigning ids and version 0.
	InsertAll(ctx context.Context, slots []*Slot) error

	// GetByID returns ErrSlotNotFound when the slot is absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// CompareAndSwap applies mutate to the stored slot and commits the
	// result only if the stored version still equals expectedVersion,
	// incrementing the version. Returns ErrVersionConflict when a
	// concurrent writer won the race and ErrSlotNotFound when the slot is
	// gone. Occupancy is the only field a mutation may change.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int, mutate func(*Slot)) (*Slot, error)

	// Delete removes the slot without a version check. Deletion is guarded
	// by the engine's occupancy rule, not by optimistic locking.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByDoctorAndRange returns the doctor's slots with
	// from <= start_time < to, ordered by start_time ascending.
	ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error)

	// ListOpenByDoctorAndRange is ListByDoctorAndRange restricted to slots
	// with no patient.
	ListOpenByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error)

	// ListByPatient returns the patient's booked slots, start_time ascending.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Slot, error)
}
