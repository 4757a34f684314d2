package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is the normalized failure shape for any non-2xx API response.
// Payload holds the parsed JSON body when the server sent one (falling back
// to the raw text), so structured error details remain inspectable.
type Error struct {
	Status  int
	Message string
	Payload any
	Raw     string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, statusLine string, body []byte) *Error {
	e := &Error{Status: status, Raw: string(body)}

	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		var payload any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			e.Payload = payload
		} else {
			e.Payload = trimmed
		}
	}

	if m, ok := e.Payload.(map[string]any); ok {
		if s, ok := m["error"].(string); ok && s != "" {
			e.Message = s
		} else if s, ok := m["message"].(string); ok && s != "" {
			e.Message = s
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("API error: %s", statusLine)
	}
	return e
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// PayloadCode extracts a string "code" field from a structured error
// payload, or "" when absent. Identity-provider responses use it to signal
// conditions like an unconfirmed account.
func PayloadCode(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return ""
	}
	m, ok := apiErr.Payload.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := m["code"].(string)
	return code
}
