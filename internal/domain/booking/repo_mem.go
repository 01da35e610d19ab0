package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// slotRepoMem is an in-process SlotRepository: a versioned map guarded by a
// mutex. The mutex makes CompareAndSwap an atomic check-and-set, which gives
// this implementation the same conflict semantics as the Postgres one. Used
// by tests and wherever a durable backend is not required.
type slotRepoMem struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*Slot
}

func NewSlotRepoMem() SlotRepository {
	return &slotRepoMem{slots: make(map[uuid.UUID]*Slot)}
}

func (r *slotRepoMem) InsertAll(_ context.Context, slots []*Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, s := range slots {
		s.ID = uuid.New()
		s.Version = 0
		s.CreatedAt = now
		s.UpdatedAt = now
		cp := *s
		r.slots[s.ID] = &cp
	}
	return nil
}

func (r *slotRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *slotRepoMem) CompareAndSwap(_ context.Context, id uuid.UUID, expectedVersion int, mutate func(*Slot)) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if s.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	cp := *s
	mutate(&cp)
	cp.Version = s.Version + 1
	cp.UpdatedAt = time.Now().UTC()
	r.slots[id] = &cp
	out := cp
	return &out, nil
}

func (r *slotRepoMem) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r *slotRepoMem) ListByDoctorAndRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error) {
	return r.list(func(s *Slot) bool {
		return s.DoctorID == doctorID && !s.StartTime.Before(from) && s.StartTime.Before(to)
	})
}

func (r *slotRepoMem) ListOpenByDoctorAndRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error) {
	return r.list(func(s *Slot) bool {
		return s.DoctorID == doctorID && s.Open() && !s.StartTime.Before(from) && s.StartTime.Before(to)
	})
}

func (r *slotRepoMem) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Slot, error) {
	return r.list(func(s *Slot) bool {
		return s.PatientID != nil && *s.PatientID == patientID
	})
}

func (r *slotRepoMem) list(match func(*Slot) bool) ([]*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Slot
	for _, s := range r.slots {
		if match(s) {
			cp := *s
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartTime.Before(items[j].StartTime) })
	return items, nil
}
