package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers for an API that returns patient data.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			// Uploaded images are embedded by the frontend, so only framing is denied.
			h.Set("Content-Security-Policy", "frame-ancestors 'none'")
			// Responses may carry patient records.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
