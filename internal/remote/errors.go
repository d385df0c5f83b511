package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-success response from the backend
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the server-provided error text
func (e *Error) UserMessage() string {
	return e.Message
}

// IsClientError reports whether the backend rejected the request itself (4xx)
func (e *Error) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// StatusOf returns the backend status carried by err, or 0
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}
