package remote

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrNetwork wraps connectivity and timeout failures.
	ErrNetwork = errors.New("network error")
	// ErrEmptyBody is returned when a successful response carries no payload.
	ErrEmptyBody = errors.New("Empty response body")
	// ErrParse is returned when a payload matches none of the known shapes.
	ErrParse = errors.New("failed to parse response")
)

// NetworkError is a transport failure. It matches ErrNetwork with errors.Is.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "Network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError is a payload decoding failure. It matches ErrParse with errors.Is.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "Failed to parse response: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// APIError is a non-2xx response from the backend.
type APIError struct {
	Op         string
	StatusCode int
	StatusText string
}

func (e *APIError) Error() string {
	if e.Op == opSnapshot {
		return "Failed to get snapshot: " + e.StatusText
	}
	return "API call failed: " + e.StatusText
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(op string, resp *http.Response) *APIError {
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		StatusText: reasonPhrase(resp),
	}
}

// reasonPhrase extracts "Not Found" from a "404 Not Found" status line.
func reasonPhrase(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
