package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "healthguard-assistant"

var (
	ErrNoSigningKey = errors.New("auth: signing key not configured")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// PatientClaims identify a logged-in patient. Subject carries the patient id.
type PatientClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// TokenIssuer signs and verifies HS256 patient session tokens. A nil issuer,
// or one without a key, is disabled.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{key: []byte(signingKey), ttl: ttl, now: time.Now}
}

// Enabled reports whether tokens can be issued.
func (t *TokenIssuer) Enabled() bool {
	return t != nil && len(t.key) > 0
}

// Issue returns a signed token for the patient and its expiry.
func (t *TokenIssuer) Issue(patientID, name string) (string, time.Time, error) {
	if !t.Enabled() {
		return "", time.Time{}, ErrNoSigningKey
	}

	now := t.now()
	exp := now.Add(t.ttl)
	claims := PatientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   patientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name: name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token issued by Issue.
func (t *TokenIssuer) Verify(tokenString string) (*PatientClaims, error) {
	if !t.Enabled() {
		return nil, ErrNoSigningKey
	}

	claims := &PatientClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
