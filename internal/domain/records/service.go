package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/internal/platform/db"
	"github.com/healthguard/assistant/pkg/outcome"
)

// TxFunc runs fn in a transaction. Repositories join it through the context.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func noTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	patients PatientRepository
	staff    StaffRepository
	wards    WardRepository
	tx       TxFunc
	logger   zerolog.Logger
}

func NewService(patients PatientRepository, staff StaffRepository, wards WardRepository, logger zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		staff:    staff,
		wards:    wards,
		tx:       noTx,
		logger:   logger.With().Str("component", "records").Logger(),
	}
}

// WithTx makes Seed atomic.
func (s *Service) WithTx(tx TxFunc) *Service {
	if tx != nil {
		s.tx = tx
	}
	return s
}

func (s *Service) GetPatientDetail(ctx context.Context, patientID string) (*PatientDetail, error) {
	return s.patients.GetDetail(ctx, strings.TrimSpace(patientID))
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) Prescriptions(ctx context.Context, patientID string) ([]Prescription, error) {
	p, err := s.patients.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return p.Prescriptions, nil
}

// Profile builds the portal view. A doctor that can no longer be loaded is
// shown as null rather than failing the request.
func (s *Service) Profile(ctx context.Context, patientID string) (*PatientProfile, error) {
	p, err := s.patients.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var doctor *ProfileDoctor
	if p.AssignedDoctorID != nil {
		d, err := s.staff.GetByID(ctx, *p.AssignedDoctorID)
		switch {
		case err == nil:
			doctor = &ProfileDoctor{
				ID:             d.ID.String(),
				Name:           d.Name,
				Department:     d.Department,
				Specialization: d.Specialization,
				Email:          d.Email,
			}
		case !errors.Is(err, ErrStaffNotFound):
			s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("assigned doctor lookup failed")
		}
	}

	labs := make([]LabReport, 0, len(p.LabReports))
	for _, r := range p.LabReports {
		labs = append(labs, LabReport{Date: r.Date, TestName: r.TestName, Results: r.Results, File: r.File})
	}

	return &PatientProfile{
		PatientID:        p.PatientID,
		Name:             p.Name,
		Age:              p.Age,
		Gender:           p.Gender,
		Type:             p.Type,
		MedicalSpecialty: p.MedicalSpecialty,
		Contact:          p.Contact,
		Insurance:        p.Insurance,
		WardNumber:       p.WardNumber,
		CartNumber:       p.CartNumber,
		AdmissionDate:    p.AdmissionDate,
		Status:           p.Status,
		AssignedDoctor:   doctor,
		Appointments:     p.Appointments,
		Prescriptions:    p.Prescriptions,
		LabReports:       labs,
	}, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]StaffSummary, error) {
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StaffSummary, 0, len(staff))
	for _, m := range staff {
		out = append(out, StaffSummary{
			ID:             m.ID.String(),
			Name:           m.Name,
			Specialization: m.Specialization,
			Role:           m.Role,
		})
	}
	return out, nil
}

// FindByCredentials is used by login.
func (s *Service) FindByCredentials(ctx context.Context, patientID, name string) (*Patient, error) {
	return s.patients.FindByCredentials(ctx, patientID, name)
}

// ResolvePatient is the chat pipeline's lookup. A missing patient is an OK
// result with a nil value.
func (s *Service) ResolvePatient(ctx context.Context, patientID string) outcome.Result[*PatientDetail] {
	d, err := s.patients.GetDetail(ctx, patientID)
	switch {
	case err == nil:
		return outcome.Ok(d)
	case errors.Is(err, ErrPatientNotFound):
		return outcome.Ok[*PatientDetail](nil)
	case db.IsUnavailable(err):
		return outcome.Unavailable[*PatientDetail](err)
	default:
		return outcome.Fault[*PatientDetail](err)
	}
}

// Roster is the chat pipeline's staff read.
func (s *Service) Roster(ctx context.Context) outcome.Result[[]*Staff] {
	staff, err := s.staff.List(ctx)
	switch {
	case err == nil:
		return outcome.Ok(staff)
	case db.IsUnavailable(err):
		return outcome.Unavailable[[]*Staff](err)
	default:
		return outcome.Fault[[]*Staff](err)
	}
}

// -- Seeding --

// SeedPatient references its doctor by name so fixture files stay readable.
type SeedPatient struct {
	Patient
	AssignedDoctor string `json:"assignedDoctor"`
}

type SeedData struct {
	Staff    []Staff       `json:"staff"`
	Wards    []Ward        `json:"wards"`
	Patients []SeedPatient `json:"patients"`
}

type SeedResult struct {
	Staff    int
	Wards    int
	Patients int
}

// Seed loads fixture data in one transaction. Staff are created first so
// patients can reference them.
func (s *Service) Seed(ctx context.Context, data *SeedData) (SeedResult, error) {
	var res SeedResult
	err := s.tx(ctx, func(ctx context.Context) error {
		byName := make(map[string]uuid.UUID)
		for i := range data.Staff {
			m := data.Staff[i]
			if strings.TrimSpace(m.Name) == "" {
				return fmt.Errorf("staff[%d]: name is required", i)
			}
			if err := s.staff.Create(ctx, &m); err != nil {
				return err
			}
			byName[strings.ToLower(m.Name)] = m.ID
			res.Staff++
		}

		for i := range data.Wards {
			w := data.Wards[i]
			if strings.TrimSpace(w.Name) == "" {
				return fmt.Errorf("wards[%d]: name is required", i)
			}
			if err := s.wards.Upsert(ctx, &w); err != nil {
				return err
			}
			res.Wards++
		}

		for i := range data.Patients {
			sp := data.Patients[i]
			p := sp.Patient
			if strings.TrimSpace(p.PatientID) == "" || strings.TrimSpace(p.Name) == "" {
				return fmt.Errorf("patients[%d]: patientId and name are required", i)
			}
			if sp.AssignedDoctor != "" {
				id, err := s.doctorID(ctx, byName, sp.AssignedDoctor)
				if err != nil {
					return fmt.Errorf("patients[%d]: %w", i, err)
				}
				p.AssignedDoctorID = &id
			}
			if err := s.patients.Create(ctx, &p); err != nil {
				return err
			}
			res.Patients++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed records: %w", err)
	}

	s.logger.Info().Int("staff", res.Staff).Int("wards", res.Wards).Int("patients", res.Patients).Msg("seeded records")
	return res, nil
}

func (s *Service) doctorID(ctx context.Context, seeded map[string]uuid.UUID, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if id, ok := seeded[strings.ToLower(ref)]; ok {
		return id, nil
	}
	d, err := s.staff.GetByName(ctx, ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("assigned doctor %q: %w", ref, err)
	}
	return d.ID, nil
}
