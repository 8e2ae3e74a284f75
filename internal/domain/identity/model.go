package identity

import "time"

const (
	PatientTypeExisting = "existing"
	PatientTypeNew      = "new"

	RolePatient = "patient"
)

// LoginRequest is the body of POST /login. Identifiers may arrive as numbers
// from some clients, so they are decoded loosely.
type LoginRequest struct {
	PatientID   flexString `json:"patientId"`
	Name        flexString `json:"name"`
	PatientType flexString `json:"patientType"`
}

// LoginResult is a successful login.
type LoginResult struct {
	Role      string
	Message   string
	PatientID string
	Name      string
	Token     string
	ExpiresAt time.Time
}
