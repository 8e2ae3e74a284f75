package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/login", h.Login)
}

type loginResponse struct {
	Status    string `json:"status"`
	Role      string `json:"role,omitempty"`
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{Status: "fail", Message: "Invalid request body"})
	}

	res, err := h.svc.Login(c.Request().Context(), req)
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return c.JSON(http.StatusBadRequest, loginResponse{
			Status:  "fail",
			Message: "Both Patient ID and Name are required for existing patients.",
		})
	case errors.Is(err, ErrInvalidCredentials):
		return c.JSON(http.StatusNotFound, loginResponse{Status: "fail", Message: "Invalid Patient ID or Name."})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, loginResponse{Status: "fail", Message: "Server error: " + err.Error()})
	}

	out := loginResponse{Status: "success", Role: res.Role, Message: res.Message, Token: res.Token}
	if res.Token != "" {
		out.ExpiresAt = res.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, out)
}
