package client

import (
	"errors"
	"fmt"
)

// APIError is returned for every failed provider request. StatusCode is 0
// when the request never produced a response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	ErrorClass ErrorClass
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("mail provider %s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("mail provider %s %s (status %d): %s: %v",
			e.Method, e.Path, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("mail provider %s %s (status %d): %s",
		e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err wraps an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
