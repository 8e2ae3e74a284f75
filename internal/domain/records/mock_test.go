package records

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// -- Mock Patient Repository --

type mockPatientRepo struct {
	patients map[string]*Patient
	staff    *mockStaffRepo
	wards    *mockWardRepo
	err      error
}

func newMockPatientRepo(staff *mockStaffRepo, wards *mockWardRepo) *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*Patient), staff: staff, wards: wards}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if m.err != nil {
		return m.err
	}
	p.ID = uuid.New()
	p.normalize()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.PatientID] = p
	return nil
}

func (m *mockPatientRepo) GetByPatientID(_ context.Context, patientID string) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[patientID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetDetail(ctx context.Context, patientID string) (*PatientDetail, error) {
	p, err := m.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	d := &PatientDetail{
		Patient:        *p,
		AssignedDoctor: DoctorSummary{Name: unknownName},
		WardDetails:    WardSummary{Name: unknownName},
	}
	if p.AssignedDoctorID != nil {
		if s, ok := m.staff.staff[*p.AssignedDoctorID]; ok {
			d.AssignedDoctor = DoctorSummary{ID: s.ID.String(), Name: s.Name, Specialization: s.Specialization, Role: s.Role}
		}
	}
	if w, ok := m.wards.wards[p.WardNumber]; ok {
		d.WardDetails = WardSummary{ID: w.ID.String(), Name: w.Name, Floor: w.Floor}
	}
	return d, nil
}

func (m *mockPatientRepo) FindByCredentials(_ context.Context, patientID, name string) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.patients {
		if strings.EqualFold(p.PatientID, patientID) && strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *mockPatientRepo) List(_ context.Context) ([]*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, nil
}

// -- Mock Staff Repository --

type mockStaffRepo struct {
	staff map[uuid.UUID]*Staff
	order []uuid.UUID
	err   error
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[uuid.UUID]*Staff)}
}

func (m *mockStaffRepo) Create(_ context.Context, s *Staff) error {
	if m.err != nil {
		return m.err
	}
	s.ID = uuid.New()
	if s.Role == "" {
		s.Role = "doctor"
	}
	m.staff[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *mockStaffRepo) GetByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.staff[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return s, nil
}

func (m *mockStaffRepo) GetByName(_ context.Context, name string) (*Staff, error) {
	for _, id := range m.order {
		if strings.EqualFold(m.staff[id].Name, name) {
			return m.staff[id], nil
		}
	}
	return nil, ErrStaffNotFound
}

func (m *mockStaffRepo) List(_ context.Context) ([]*Staff, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*Staff, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.staff[id])
	}
	return out, nil
}

// -- Mock Ward Repository --

type mockWardRepo struct {
	wards map[string]*Ward
}

var _ WardRepository = (*mockWardRepo)(nil)

func newMockWardRepo() *mockWardRepo {
	return &mockWardRepo{wards: make(map[string]*Ward)}
}

func (m *mockWardRepo) Upsert(_ context.Context, w *Ward) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.wards[w.Name] = w
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
