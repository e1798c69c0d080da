package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

// -----------------------------------------------------------------------------
// Catalog Error Taxonomy
// -----------------------------------------------------------------------------

// CatalogError is the base for every classified failure at the catalog
// boundary.
type CatalogError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// UnauthorizedError marks HTTP 401/403: credentials are stale. It drives the
// deduplicated expiry alert and never stops the poll loop.
type UnauthorizedError struct{ CatalogError }

// RemoteError marks any other >=400 response from the catalog.
type RemoteError struct{ CatalogError }

// TransportError marks connection-level failures.
type TransportError struct{ CatalogError }

// DecodeError marks a well-received but malformed response body.
type DecodeError struct{ CatalogError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewUnauthorized(statusCode int) error {
	return &UnauthorizedError{CatalogError{
		Message:    fmt.Sprintf("unauthorized (%d) - token expired or invalid", statusCode),
		StatusCode: statusCode,
	}}
}

func NewRemote(statusCode int, body string) error {
	return &RemoteError{CatalogError{
		Message:    fmt.Sprintf("http error %d: %s", statusCode, body),
		StatusCode: statusCode,
	}}
}

func NewTransport(cause error) error {
	return &TransportError{CatalogError{Message: "transport failure", Cause: cause}}
}

func NewDecode(cause error) error {
	return &DecodeError{CatalogError{Message: "decode failure", Cause: cause}}
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// ClassifyStatus turns an HTTP status into the taxonomy error, or nil for a
// success status.
func ClassifyStatus(statusCode int, body string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewUnauthorized(statusCode)
	case statusCode >= 400:
		return NewRemote(statusCode, body)
	default:
		return nil
	}
}

// IsUnauthorized reports whether err is (or wraps) a stale-credentials
// failure.
func IsUnauthorized(err error) bool {
	var u *UnauthorizedError
	return errors.As(err, &u)
}

// ErrorTypeLabel returns the metrics/log label for a classified error.
func ErrorTypeLabel(err error) string {
	var (
		u *UnauthorizedError
		r *RemoteError
		t *TransportError
		d *DecodeError
	)
	switch {
	case errors.As(err, &u):
		return "unauthorized"
	case errors.As(err, &r):
		return "remote"
	case errors.As(err, &t):
		return "transport"
	case errors.As(err, &d):
		return "decode"
	default:
		return "other"
	}
}

// HTTPStatus maps a classified error onto the status the configuration API
// surfaces: 401 for stale credentials, 502 for remote/transport/decode
// trouble, 500 otherwise.
func HTTPStatus(err error) int {
	var (
		u *UnauthorizedError
		r *RemoteError
		t *TransportError
		d *DecodeError
	)
	switch {
	case errors.As(err, &u):
		return http.StatusUnauthorized
	case errors.As(err, &r), errors.As(err, &t), errors.As(err, &d):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
