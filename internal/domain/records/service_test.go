package records

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/pkg/outcome"
)

type testRepos struct {
	patients *mockPatientRepo
	staff    *mockStaffRepo
	wards    *mockWardRepo
}

func newTestService() (*Service, *testRepos) {
	staff := newMockStaffRepo()
	wards := newMockWardRepo()
	patients := newMockPatientRepo(staff, wards)
	return NewService(patients, staff, wards, zerolog.Nop()), &testRepos{patients, staff, wards}
}

func seedJohn(t *testing.T, svc *Service) {
	t.Helper()
	_, err := svc.Seed(context.Background(), &SeedData{
		Staff: []Staff{
			{Name: "Dr. Emily Carter", Specialization: strPtr("Cardiology"), Department: strPtr("Cardiology"), Email: strPtr("emily@example.com")},
			{Name: "Nurse Joy", Role: "nurse"},
		},
		Wards: []Ward{{Name: "W-12", Floor: strPtr("3")}},
		Patients: []SeedPatient{{
			Patient: Patient{
				PatientID:  "P001",
				Name:       "John Doe",
				Age:        intPtr(45),
				Gender:     strPtr("Male"),
				WardNumber: "W-12",
				LabReports: []LabReport{
					{Date: "2024-01-01", TestName: "CBC", Results: "normal", File: "cbc.pdf"},
					{Date: "2024-02-01", TestName: "Lipid", Results: "high LDL", File: "lipid.pdf"},
				},
				Prescriptions: []Prescription{
					{Date: "2024-01-02", Medicines: []Medicine{{Name: "Aspirin", Dosage: "75mg"}}},
				},
			},
			AssignedDoctor: "dr. emily carter",
		}},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
}

func TestSeed_LinksDoctorByName(t *testing.T) {
	svc, repos := newTestService()
	seedJohn(t, svc)

	p := repos.patients.patients["P001"]
	if p == nil || p.AssignedDoctorID == nil {
		t.Fatal("expected P001 with an assigned doctor")
	}
	if repos.staff.staff[*p.AssignedDoctorID].Name != "Dr. Emily Carter" {
		t.Errorf("expected Dr. Emily Carter, got %s", repos.staff.staff[*p.AssignedDoctorID].Name)
	}
}

func TestSeed_UpsertsWards(t *testing.T) {
	svc, repos := newTestService()
	res, err := svc.Seed(context.Background(), &SeedData{
		Wards: []Ward{{Name: "W-12", Floor: strPtr("3")}, {Name: "ICU-1", WardType: strPtr("ICU")}},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Wards != 2 {
		t.Errorf("expected 2 wards seeded, got %d", res.Wards)
	}
	if w := repos.wards.wards["ICU-1"]; w == nil || w.WardType == nil || *w.WardType != "ICU" {
		t.Errorf("expected ICU-1 stored, got %+v", w)
	}
}

func TestSeed_UnknownDoctor(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Seed(context.Background(), &SeedData{
		Patients: []SeedPatient{{Patient: Patient{PatientID: "P9", Name: "X"}, AssignedDoctor: "Dr. Nobody"}},
	})
	if !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
}

func TestSeed_Validation(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Seed(context.Background(), &SeedData{Patients: []SeedPatient{{Patient: Patient{Name: "X"}}}}); err == nil {
		t.Error("expected error for patient without id")
	}
	if _, err := svc.Seed(context.Background(), &SeedData{Staff: []Staff{{}}}); err == nil {
		t.Error("expected error for unnamed staff")
	}
}

func TestSeed_RunsInTransaction(t *testing.T) {
	svc, _ := newTestService()
	calls := 0
	svc.WithTx(func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		return fn(ctx)
	})
	if _, err := svc.Seed(context.Background(), &SeedData{}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one transaction, got %d", calls)
	}
}

func TestGetPatientDetail_Joins(t *testing.T) {
	svc, _ := newTestService()
	seedJohn(t, svc)

	d, err := svc.GetPatientDetail(context.Background(), " P001 ")
	if err != nil {
		t.Fatalf("GetPatientDetail: %v", err)
	}
	if d.AssignedDoctor.Name != "Dr. Emily Carter" {
		t.Errorf("expected joined doctor, got %+v", d.AssignedDoctor)
	}
	if d.WardDetails.Name != "W-12" {
		t.Errorf("expected joined ward, got %+v", d.WardDetails)
	}
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService()
	seedJohn(t, svc)

	p, err := svc.Profile(context.Background(), "P001")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.AssignedDoctor == nil || p.AssignedDoctor.Email == nil || *p.AssignedDoctor.Email != "emily@example.com" {
		t.Errorf("expected doctor details, got %+v", p.AssignedDoctor)
	}
	if len(p.LabReports) != 2 || p.LabReports[1].File != "lipid.pdf" {
		t.Errorf("unexpected lab reports %+v", p.LabReports)
	}
	if p.Appointments == nil {
		t.Error("expected empty appointments slice, not nil")
	}
}

func TestProfile_ExactPatientID(t *testing.T) {
	svc, _ := newTestService()
	seedJohn(t, svc)
	if _, err := svc.Profile(context.Background(), "p001"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound for different case, got %v", err)
	}
}

func TestProfile_MissingDoctorIsNull(t *testing.T) {
	svc, repos := newTestService()
	seedJohn(t, svc)
	for id := range repos.staff.staff {
		delete(repos.staff.staff, id)
	}

	p, err := svc.Profile(context.Background(), "P001")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.AssignedDoctor != nil {
		t.Errorf("expected nil doctor, got %+v", p.AssignedDoctor)
	}
}

func TestPrescriptions(t *testing.T) {
	svc, _ := newTestService()
	seedJohn(t, svc)

	rx, err := svc.Prescriptions(context.Background(), "P001")
	if err != nil {
		t.Fatalf("Prescriptions: %v", err)
	}
	if len(rx) != 1 || rx[0].Medicines[0].Name != "Aspirin" {
		t.Errorf("unexpected prescriptions %+v", rx)
	}
}

func TestListStaff(t *testing.T) {
	svc, _ := newTestService()
	seedJohn(t, svc)

	staff, err := svc.ListStaff(context.Background())
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	if len(staff) != 2 || staff[0].Name != "Dr. Emily Carter" || staff[1].Role != "nurse" {
		t.Errorf("unexpected roster %+v", staff)
	}
	if staff[0].ID == "" {
		t.Error("expected staff id")
	}
}

func TestResolvePatient(t *testing.T) {
	svc, repos := newTestService()
	seedJohn(t, svc)
	ctx := context.Background()

	r := svc.ResolvePatient(ctx, "P001")
	if !r.IsOK() || r.Value == nil || r.Value.Name != "John Doe" {
		t.Fatalf("expected OK with John Doe, got %+v", r)
	}

	r = svc.ResolvePatient(ctx, "P404")
	if !r.IsOK() || r.Value != nil {
		t.Fatalf("expected OK with nil for unknown patient, got %+v", r)
	}

	repos.patients.err = fmt.Errorf("query: %w", &net.OpError{Op: "dial", Err: errors.New("refused")})
	if r = svc.ResolvePatient(ctx, "P001"); r.Kind != outcome.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", r.Kind)
	}

	repos.patients.err = errors.New("column does not exist")
	if r = svc.ResolvePatient(ctx, "P001"); r.Kind != outcome.KindFault {
		t.Fatalf("expected fault, got %v", r.Kind)
	}
}

func TestRoster(t *testing.T) {
	svc, repos := newTestService()
	seedJohn(t, svc)

	r := svc.Roster(context.Background())
	if !r.IsOK() || len(r.Value) != 2 {
		t.Fatalf("expected two staff, got %+v", r)
	}

	repos.staff.err = context.DeadlineExceeded
	r = svc.Roster(context.Background())
	if r.Kind != outcome.KindUnavailable || len(r.ValueOr(nil)) != 0 {
		t.Fatalf("expected unavailable with empty default, got %+v", r)
	}
}
