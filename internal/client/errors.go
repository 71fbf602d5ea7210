// ABOUTME: Structured error returned for every non-2xx backend response
// ABOUTME: Carries a display-ready message, optional backend code, and HTTP status

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is the normalized form of a protocol-level failure.
// Message is never empty.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// newAPIError builds an APIError from a status code and raw response body.
// Bodies that are not a JSON object are treated as an empty object. The
// message and code fields are read independently and only when they are
// strings, so a malformed one never hides the other.
func newAPIError(status int, body []byte) *APIError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	message := stringField(fields, "message")
	if message == "" {
		message = reasonPhrase(status)
	}

	return &APIError{
		Message: message,
		Code:    stringField(fields, "code"),
		Status:  status,
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

// reasonPhrase returns the standard text for status, or a generic label for
// codes that have none.
func reasonPhrase(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// APIError (transport and decode failures).
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
