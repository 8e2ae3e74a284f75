package identity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString accepts any JSON scalar and keeps its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		if v {
			*f = "True"
		} else {
			*f = "False"
		}
		return nil
	}
	*f = flexString(string(b))
	return nil
}

func (f flexString) trimmed() string {
	return strings.TrimSpace(string(f))
}
