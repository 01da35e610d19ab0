package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// DoctorExists reports whether a doctor record exists, for callers that only
// need the check and not the record.
func (s *Service) DoctorExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.doctors.GetByID(ctx, id)
	return err
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	return s.patients.GetByPhone(ctx, phone)
}

// FindOrCreateByPhone looks a patient up by phone and registers them on
// first contact. Implements booking.PatientDirectory.
func (s *Service) FindOrCreateByPhone(ctx context.Context, name, phone string) (uuid.UUID, error) {
	p, err := s.patients.GetByPhone(ctx, phone)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return uuid.Nil, err
	}
	p = &Patient{Name: name, Phone: phone}
	if err := s.CreatePatient(ctx, p); err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// FindByPhone resolves a phone number to a patient id. Implements
// booking.PatientDirectory.
func (s *Service) FindByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	p, err := s.patients.GetByPhone(ctx, phone)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
