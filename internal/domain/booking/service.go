package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotDuration is the fixed slot length used when none is configured.
const DefaultSlotDuration = 30 * time.Minute

// Service orchestrates slot generation, booking, and the read-side queries.
// It holds no mutable state of its own; the repository owns all
// synchronization, so a single Service may be shared across requests.
type Service struct {
	slots SlotRepository
	unit  time.Duration
}

func NewService(slots SlotRepository, unit time.Duration) *Service {
	if unit <= 0 {
		unit = DefaultSlotDuration
	}
	return &Service{slots: slots, unit: unit}
}

// SlotDuration returns the fixed slot length this service generates.
func (s *Service) SlotDuration() time.Duration { return s.unit }

// GenerateSlots slices [start, end) into fixed-length slots and persists
// them. A range shorter than one unit persists nothing and returns an empty
// result. Returns ErrInvalidRange for a reversed range or one wider than 24h.
func (s *Service) GenerateSlots(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Slot, error) {
	slots, err := SliceRange(doctorID, start, end, s.unit)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}
	if err := s.slots.InsertAll(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Book assigns patientID to an open slot. The occupancy check and the write
// are separated by the store's compare-and-swap: if another writer commits in
// between, the store reports ErrVersionConflict and Book surfaces
// ErrConcurrentModification. There is no automatic retry; retrying would need
// to re-validate the occupancy rule, and that belongs to the caller.
func (s *Service) Book(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !slot.Open() {
		return nil, ErrAlreadyBooked
	}

	booked, err := s.slots.CompareAndSwap(ctx, slotID, slot.Version, func(sl *Slot) {
		pid := patientID
		sl.PatientID = &pid
	})
	if errors.Is(err, ErrVersionConflict) {
		return nil, ErrConcurrentModification
	}
	if err != nil {
		return nil, err
	}
	return booked, nil
}

// Release deletes an open slot. Booked slots cannot be released.
func (s *Service) Release(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if !slot.Open() {
		return ErrSlotOccupied
	}
	return s.slots.Delete(ctx, slotID)
}

// GetSlot returns a single slot snapshot.
func (s *Service) GetSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	return s.slots.GetByID(ctx, slotID)
}

// DoctorDay lists all of the doctor's slots, booked and open, for the
// calendar day containing date. The day window derives from the passed date,
// never from process time.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Slot, error) {
	from, to := dayWindow(date)
	return s.slots.ListByDoctorAndRange(ctx, doctorID, from, to)
}

// OpenDay lists the doctor's open slots for the day, the patient-facing
// availability view. An empty result is a valid answer, not a failure.
func (s *Service) OpenDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Slot, error) {
	from, to := dayWindow(date)
	return s.slots.ListOpenByDoctorAndRange(ctx, doctorID, from, to)
}

// PatientSlots lists the slots booked by a patient.
func (s *Service) PatientSlots(ctx context.Context, patientID uuid.UUID) ([]*Slot, error) {
	return s.slots.ListByPatient(ctx, patientID)
}

func dayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24 * time.Hour)
}
