package supabase

import (
	"errors"
	"fmt"
)

var ErrInvalidToken = errors.New("invalid access token")

// AuthError is a non-2xx answer from the auth service.
type AuthError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth service http %d", e.StatusCode)
}

func (e *AuthError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// UnavailableError means the auth service could not be reached.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "auth service unavailable: " + e.Err.Error() }
func (e *UnavailableError) Unwrap() error { return e.Err }

func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
