// Package xnat provides an HTTP client for the XNAT REST API: session
// authentication, file transfer, catalog retrieval, and error classification.
package xnat

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, xnat.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("xnat: bad request")
	ErrUnauthorized = errors.New("xnat: unauthorized")
	ErrForbidden    = errors.New("xnat: forbidden")
	ErrNotFound     = errors.New("xnat: not found")
	ErrConflict     = errors.New("xnat: conflict")
	ErrServerError  = errors.New("xnat: server error")
)

// ErrUnknownHandle is returned by HTTPSync for a handle that was never
// issued or has already been consumed.
var ErrUnknownHandle = errors.New("xnat: unknown request handle")

// APIError wraps a sentinel error with the HTTP status code and the response
// body returned by the server, for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xnat: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
