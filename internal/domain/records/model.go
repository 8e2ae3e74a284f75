package records

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LabReport struct {
	Date     string `json:"date"`
	TestName string `json:"testName"`
	Results  string `json:"results"`
	File     string `json:"file"`
}

type Medicine struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

// UnmarshalJSON also accepts a bare medicine name, which older records use.
func (m *Medicine) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*m = Medicine{Name: name}
		return nil
	}
	type plain Medicine
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Medicine(p)
	return nil
}

type Prescription struct {
	Date      string     `json:"date"`
	Medicines []Medicine `json:"medicines"`
	Notes     string     `json:"notes,omitempty"`
}

type Appointment struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Doctor      string `json:"doctor,omitempty"`
	Status      string `json:"status,omitempty"`
}

type Staff struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization *string   `json:"specialization,omitempty"`
	Department     *string   `json:"department,omitempty"`
	Role           string    `json:"role"`
	Email          *string   `json:"email,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Ward struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Floor     *string   `json:"floor,omitempty"`
	WardType  *string   `json:"wardType,omitempty"`
	Capacity  *int      `json:"capacity,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Patient lists are stored in chronological order; the last element is the
// latest entry.
type Patient struct {
	ID               uuid.UUID      `json:"id"`
	PatientID        string         `json:"patientId"`
	Name             string         `json:"name"`
	Age              *int           `json:"age"`
	Gender           *string        `json:"gender"`
	Type             *string        `json:"type"`
	MedicalSpecialty *string        `json:"medicalSpecialty"`
	Contact          map[string]any `json:"contact"`
	Insurance        map[string]any `json:"insurance"`
	WardNumber       string         `json:"wardNumber"`
	CartNumber       string         `json:"cartNumber"`
	AdmissionDate    string         `json:"admissionDate"`
	Status           string         `json:"status"`
	AssignedDoctorID *uuid.UUID     `json:"assignedDoctorId,omitempty"`
	LabReports       []LabReport    `json:"labReports"`
	Prescriptions    []Prescription `json:"prescriptions"`
	Appointments     []Appointment  `json:"appointments"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// normalize replaces nil collections so they store as empty JSON values.
func (p *Patient) normalize() {
	if p.Contact == nil {
		p.Contact = map[string]any{}
	}
	if p.Insurance == nil {
		p.Insurance = map[string]any{}
	}
	if p.LabReports == nil {
		p.LabReports = []LabReport{}
	}
	if p.Prescriptions == nil {
		p.Prescriptions = []Prescription{}
	}
	for i := range p.Prescriptions {
		if p.Prescriptions[i].Medicines == nil {
			p.Prescriptions[i].Medicines = []Medicine{}
		}
	}
	if p.Appointments == nil {
		p.Appointments = []Appointment{}
	}
}

func (p *Patient) LatestLabReport() *LabReport {
	if len(p.LabReports) == 0 {
		return nil
	}
	return &p.LabReports[len(p.LabReports)-1]
}

func (p *Patient) LatestPrescription() *Prescription {
	if len(p.Prescriptions) == 0 {
		return nil
	}
	return &p.Prescriptions[len(p.Prescriptions)-1]
}

func (p *Patient) LatestAppointment() *Appointment {
	if len(p.Appointments) == 0 {
		return nil
	}
	return &p.Appointments[len(p.Appointments)-1]
}

// DoctorSummary is the assigned doctor as joined onto a patient.
type DoctorSummary struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Specialization *string `json:"specialization,omitempty"`
	Department     *string `json:"department,omitempty"`
	Role           string  `json:"role,omitempty"`
	Email          *string `json:"email,omitempty"`
}

type WardSummary struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Floor    *string `json:"floor,omitempty"`
	WardType *string `json:"wardType,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
}

// PatientDetail is a patient joined with its assigned doctor and its ward.
// Missing joins are reported with the name "Unknown".
type PatientDetail struct {
	Patient
	AssignedDoctor DoctorSummary `json:"assignedDoctor"`
	WardDetails    WardSummary   `json:"wardDetails"`
}

const unknownName = "Unknown"

// StaffSummary is the roster projection served by /api/staff.
type StaffSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Specialization *string `json:"specialization,omitempty"`
	Role           string  `json:"role,omitempty"`
}

// ProfileDoctor is the assigned doctor shown on a patient profile.
type ProfileDoctor struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Department     *string `json:"department"`
	Specialization *string `json:"specialization"`
	Email          *string `json:"email"`
}

// PatientProfile is the patient portal view of a record.
type PatientProfile struct {
	PatientID        string         `json:"patientId"`
	Name             string         `json:"name"`
	Age              *int           `json:"age"`
	Gender           *string        `json:"gender"`
	Type             *string        `json:"type"`
	MedicalSpecialty *string        `json:"medicalSpecialty"`
	Contact          map[string]any `json:"contact"`
	Insurance        map[string]any `json:"insurance"`
	WardNumber       string         `json:"wardNumber"`
	CartNumber       string         `json:"cartNumber"`
	AdmissionDate    string         `json:"admissionDate"`
	Status           string         `json:"status"`
	AssignedDoctor   *ProfileDoctor `json:"assignedDoctor"`
	Appointments     []Appointment  `json:"appointments"`
	Prescriptions    []Prescription `json:"prescriptions"`
	LabReports       []LabReport    `json:"labReports"`
}
