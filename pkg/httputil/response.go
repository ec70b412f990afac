// Package httputil provides the JSON response helpers of the management API
// handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/apictl/pkg/api/types"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteWithETag writes data with status and sets the ETag header first.
// An empty etag sends no header.
func WriteWithETag(w http.ResponseWriter, status int, etag string, data any) {
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	WriteJSON(w, status, data)
}

// WriteError writes a types.ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, types.ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusBadRequest, errCode, message)
}

// WritePreconditionFailed writes the 412 sent when If-Match does not match
// the stored revision.
func WritePreconditionFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusPreconditionFailed, "conflict", message)
}
