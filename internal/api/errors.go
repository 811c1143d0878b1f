package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RequestError is returned for any non-2xx backend response. Message holds
// the server-provided text when the body carried one, so callers can surface
// it verbatim.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// IsClientError reports whether the failure was a validation-class 4xx
// (seat already booked, insufficient availability) rather than a
// connectivity or server fault.
func (e *RequestError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// newRequestError extracts the server message from an error body. The
// backend is inconsistent about the key it uses, so all known ones are
// tried in order.
func newRequestError(statusCode int, body []byte) *RequestError {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			var msg string
			if raw, ok := payload[key]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
				return &RequestError{StatusCode: statusCode, Message: msg}
			}
		}
	}
	return &RequestError{StatusCode: statusCode}
}
