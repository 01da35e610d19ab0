package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

const slotCols = `id, doctor_id, patient_id, start_time, end_time, version, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.PatientID, &s.StartTime, &s.EndTime,
		&s.Version, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *slotRepoPG) InsertAll(ctx context.Context, slots []*Slot) error {
	if len(slots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for _, s := range slots {
		s.ID = uuid.New()
		s.Version = 0
		s.CreatedAt = now
		s.UpdatedAt = now
		batch.Queue(`
			INSERT INTO slot (id, doctor_id, patient_id, start_time, end_time, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			s.ID, s.DoctorID, s.PatientID, s.StartTime, s.EndTime, s.Version, s.CreatedAt, s.UpdatedAt)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range slots {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
	}
	return nil
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	s, err := scanSlot(r.pool.QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CompareAndSwap commits the mutated occupancy in a single UPDATE guarded by
// the version predicate. The affected-row count decides the outcome, so the
// check-and-set happens inside the statement, never as a separate
// read-then-write from this process.
func (r *slotRepoPG) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int, mutate func(*Slot)) (*Slot, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	mutate(s)

	row := r.pool.QueryRow(ctx, `
		UPDATE slot SET patient_id=$2, version=version+1, updated_at=NOW()
		WHERE id = $1 AND version = $3
		RETURNING version, updated_at`,
		id, s.PatientID, expectedVersion)
	if err := row.Scan(&s.Version, &s.UpdatedAt); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slot WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrSlotNotFound
		}
		return nil, ErrVersionConflict
	}
	return s, nil
}

func (r *slotRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM slot WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *slotRepoPG) ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *slotRepoPG) ListOpenByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE doctor_id = $1 AND patient_id IS NULL AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *slotRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE patient_id = $1
		ORDER BY start_time ASC`, patientID)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]*Slot, error) {
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
