package client

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a package, token or distribution is not found.
var ErrNotFound = errors.New("not found")

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// TransportError is returned once every attempt of a call has failed with
// a retryable error: a connection failure, a timeout or an HTTP error status.
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status of the last attempt, or 0 when the last
// attempt never got a response.
func (e *TransportError) StatusCode() int {
	var httpErr *HTTPError
	if errors.As(e.Err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// MalformedResponseError is returned when a response body is not valid JSON
// or lacks a field the caller needs. It is never retried.
type MalformedResponseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("unexpected response from %s: %s", e.URL, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an exhausted call whose last response
// was a 404.
func IsNotFound(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode() == 404
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsNotFound()
	}
	return false
}
