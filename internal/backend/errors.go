package backend

import (
	"fmt"
)

// TransportError means no response was received from the processing backend.
type TransportError struct {
	BaseURL string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("processing backend %s unreachable: %v", e.BaseURL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Message holds the body's "error" field
// when the backend supplied one.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processing backend http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("processing backend http %d", e.StatusCode)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
