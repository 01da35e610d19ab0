package booking

import "errors"

var (
	// ErrInvalidRange is returned when a generation range is malformed:
	// end before start, or a span longer than a single day.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrSlotNotFound is returned when the referenced slot does not exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrAlreadyBooked is returned when the slot was already occupied at
	// read time. The slot is legitimately taken, not lost to a race.
	ErrAlreadyBooked = errors.New("slot already booked")

	// ErrSlotOccupied is returned when deleting a booked slot is attempted.
	ErrSlotOccupied = errors.New("cannot delete a booked slot")

	// ErrVersionConflict is the store-level signal that a concurrent writer
	// committed between our read and our write.
	ErrVersionConflict = errors.New("slot version conflict")

	// ErrConcurrentModification is the caller-visible translation of
	// ErrVersionConflict. Distinct from ErrAlreadyBooked: it means the race
	// was lost, not that the slot was taken when read. The caller decides
	// whether to re-read and resubmit; the engine never retries.
	ErrConcurrentModification = errors.New("slot is being modified by another request")
)
