package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrMemberNotFound = errors.New("family member not found")
	ErrValidation     = errors.New("validation failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrOffline        = errors.New("device is offline")
	ErrEmptyResponse  = errors.New("response carried no data")
	ErrRejected       = errors.New("request rejected by server")
)

// ValidationError rejects input before it reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequestError is the single failure type of the HTTP transport.
// A zero StatusCode means no HTTP response was received.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Details    []string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
		}
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}

	return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Message, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Transient() bool {
	return e.StatusCode == 0
}

// IsTransient reports whether err is a request failure that never got an HTTP response.
func IsTransient(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}

	return reqErr.Transient()
}

func StatusCode(err error) int {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return 0
	}

	return reqErr.StatusCode
}
