package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healthguard/assistant/internal/platform/auth"
	"github.com/healthguard/assistant/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the chat endpoint on root and the log search on api.
func (h *Handler) RegisterRoutes(root *echo.Group, api *echo.Group) {
	root.POST("/chat", h.Chat)
	api.GET("/chat/search", h.Search)
}

type chatRequest struct {
	Message     json.RawMessage `json:"message"`
	PatientID   json.RawMessage `json:"patientId"`
	PatientType json.RawMessage `json:"patientType"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *Handler) Chat(c echo.Context) error {
	var body chatRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, chatResponse{Response: emptyMessageReply})
	}

	req := Request{
		Message:     scalarText(body.Message),
		PatientID:   patientIDText(body.PatientID),
		PatientType: scalarText(body.PatientType),
	}
	if req.PatientID == "" {
		req.PatientID = auth.PatientIDFromContext(c.Request().Context())
	}

	res := h.svc.Handle(c.Request().Context(), req)
	return c.JSON(res.Status, chatResponse{Response: res.Text})
}

func (h *Handler) Search(c echo.Context) error {
	patientID := strings.TrimSpace(c.QueryParam("patientId"))
	if patientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Patient ID is required."})
	}

	page := pagination.FromContext(c, SearchLimit, SearchLimit)
	results, err := h.svc.Search(c.Request().Context(), patientID, c.QueryParam("q"), page)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "Search error: " + err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "results": results})
}

// patientIDText accepts a string, a number or a list whose first element is
// one of those.
func patientIDText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		return scalarText(list[0])
	}
	return scalarText(raw)
}

// scalarText renders a JSON scalar as trimmed text. Null, objects and lists
// yield "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil && b {
		return "True"
	}
	return ""
}
