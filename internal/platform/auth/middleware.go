package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const PatientIDKey contextKey = "patient_id"

// SessionKey is the echo context key holding the authenticated patient id.
const SessionKey = "session_patient_id"

// PatientSession reads an optional bearer token. Requests without one pass
// through anonymously; a malformed or expired token is rejected with 401.
// A disabled issuer makes the middleware a no-op.
func PatientSession(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !issuer.Enabled() {
			return next
		}
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := issuer.Verify(strings.TrimSpace(token))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(SessionKey, claims.Subject)
			ctx := context.WithValue(c.Request().Context(), PatientIDKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// PatientIDFromContext returns the session patient id, or "" for anonymous
// requests.
func PatientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(PatientIDKey).(string)
	return v
}
