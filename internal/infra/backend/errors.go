package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Message)
}

// HTTPStatus returns the backend status code.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// FirstFieldError returns one field message, in field-name order, for display.
func (e *APIError) FirstFieldError() string {
	var first string
	for field, msgs := range e.Errors {
		if len(msgs) == 0 {
			continue
		}
		if first == "" || field < first {
			first = field
		}
	}
	if first == "" {
		return ""
	}
	return e.Errors[first][0]
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		apiErr.Errors = payload.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(http.StatusText(status))
	}
	return apiErr
}
