package records

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the JSON API on api ("/api") and the patient portal
// on portal ("/mypatient").
func (h *Handler) RegisterRoutes(api *echo.Group, portal *echo.Group) {
	api.GET("/patients/:patientId", h.GetPatient)
	api.GET("/staff", h.ListStaff)

	portal.GET("/", h.ListPatients)
	portal.GET("/:patientId", h.GetProfile)
	portal.GET("/:patientId/prescriptions", h.GetPrescriptions)
}

func (h *Handler) GetPatient(c echo.Context) error {
	d, err := h.svc.GetPatientDetail(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"success": false, "message": "Patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "Server error: " + err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "patient": d})
}

func (h *Handler) ListStaff(c echo.Context) error {
	staff, err := h.svc.ListStaff(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "Server error: " + err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "staff": staff})
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Error fetching patients", "error": err.Error()})
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Profile(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Error fetching patient", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPrescriptions(c echo.Context) error {
	rx, err := h.svc.Prescriptions(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "Patient not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Error fetching prescriptions", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, rx)
}
