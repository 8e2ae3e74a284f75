package records

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrStaffNotFound   = errors.New("staff member not found")
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	// GetDetail joins the assigned doctor and the ward named by WardNumber.
	GetDetail(ctx context.Context, patientID string) (*PatientDetail, error)
	// FindByCredentials matches id and name exactly, ignoring case.
	FindByCredentials(ctx context.Context, patientID, name string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

type StaffRepository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetByName(ctx context.Context, name string) (*Staff, error)
	List(ctx context.Context) ([]*Staff, error)
}

type WardRepository interface {
	Upsert(ctx context.Context, w *Ward) error
}
