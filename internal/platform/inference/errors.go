package inference

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the model server.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	return fmt.Sprintf("model server error: status=%d message=%s", e.StatusCode, msg)
}

func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		msg := strings.TrimSpace(env.Error)
		if msg == "" {
			msg = strings.TrimSpace(env.Detail)
		}
		if msg != "" {
			return &HTTPError{StatusCode: status, Message: msg, Body: body}
		}
	}
	return &HTTPError{StatusCode: status, Body: body}
}
