package mgmtclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for management client operations.
var (
	// ErrNotFound is returned when the API does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the API changed since it was read.
	ErrConflict = errors.New("api was modified concurrently")
	// ErrMissingID is returned when updating an API without an ID.
	ErrMissingID = errors.New("api id is required")
)

// Error codes set on APIError when the server did not provide one.
const (
	CodeConnection = "connection_error"
	CodeUnknown    = "unknown_error"
)

// APIError is an error response from the management API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches ErrNotFound for 404 responses and ErrConflict for 409 and 412.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusPreconditionFailed
	}
	return false
}

// IsConnectionError reports whether err means the service could not be
// reached at all.
func IsConnectionError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == CodeConnection
}
