package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxRange is the widest span a single generation call may cover.
const MaxRange = 24 * time.Hour

// SliceRange splits [start, end) into contiguous slots of exactly unit each,
// starting at start. The trailing partial remainder is dropped: a 2h10m range
// with a 30m unit yields four slots. A range shorter than one unit yields an
// empty result, not an error.
//
// The returned slots are unsaved: zero ID, version 0, no patient. SliceRange
// has no side effects and is deterministic for identical inputs.
func SliceRange(doctorID uuid.UUID, start, end time.Time, unit time.Duration) ([]*Slot, error) {
	if unit <= 0 {
		return nil, fmt.Errorf("%w: slot unit %s must be positive", ErrInvalidRange, unit)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if end.Sub(start) > MaxRange {
		return nil, fmt.Errorf("%w: span exceeds %s", ErrInvalidRange, MaxRange)
	}

	slots := []*Slot{}
	for cursor := start; !cursor.Add(unit).After(end); cursor = cursor.Add(unit) {
		slots = append(slots, &Slot{
			DoctorID:  doctorID,
			StartTime: cursor,
			EndTime:   cursor.Add(unit),
		})
	}
	return slots, nil
}
