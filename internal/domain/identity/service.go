package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/internal/domain/records"
	"github.com/healthguard/assistant/internal/platform/auth"
)

var (
	ErrMissingCredentials = errors.New("both Patient ID and Name are required for existing patients")
	ErrInvalidCredentials = errors.New("invalid Patient ID or Name")
)

// CredentialStore finds a patient by case-insensitive id and name.
type CredentialStore interface {
	FindByCredentials(ctx context.Context, patientID, name string) (*records.Patient, error)
}

type Service struct {
	store  CredentialStore
	tokens *auth.TokenIssuer
	logger zerolog.Logger
}

// NewService builds the login service. tokens may be nil, in which case no
// session token is returned.
func NewService(store CredentialStore, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	patientID := req.PatientID.trimmed()
	name := req.Name.trimmed()
	patientType := strings.ToLower(req.PatientType.trimmed())
	if patientType == "" {
		patientType = PatientTypeExisting
	}

	if patientType == PatientTypeExisting && (patientID == "" || name == "") {
		return nil, ErrMissingCredentials
	}

	if patientType == PatientTypeNew {
		return &LoginResult{
			Role:    RolePatient,
			Message: "Welcome! As a new patient, you can ask about our services and doctors.",
		}, nil
	}

	p, err := s.store.FindByCredentials(ctx, patientID, name)
	if err != nil {
		if errors.Is(err, records.ErrPatientNotFound) {
			s.logger.Info().Str("patient_id", patientID).Msg("login rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}

	res := &LoginResult{
		Role:      RolePatient,
		Message:   fmt.Sprintf("Welcome %s, you have successfully logged in.", p.Name),
		PatientID: p.PatientID,
		Name:      p.Name,
	}
	if s.tokens.Enabled() {
		token, exp, err := s.tokens.Issue(p.PatientID, p.Name)
		if err != nil {
			return nil, fmt.Errorf("issue session token: %w", err)
		}
		res.Token = token
		res.ExpiresAt = exp
	}

	s.logger.Info().Str("patient_id", p.PatientID).Bool("token", res.Token != "").Msg("patient logged in")
	return res, nil
}
