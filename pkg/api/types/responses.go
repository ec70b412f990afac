// Package types provides the wire types of the management REST API that are
// not part of the API definition itself.
package types

import "time"

// ErrorResponse is the error body returned by the management API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// APISummary is one row of the API listing.
type APISummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	Visibility  string    `json:"visibility,omitempty"`
	State       string    `json:"state,omitempty"`
	ContextPath string    `json:"context_path,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// PaginatedResponse is a generic paginated response wrapper.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Total  int `json:"total,omitempty"`
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// APIListResponse lists the APIs visible to the caller.
type APIListResponse = PaginatedResponse[APISummary]

// Tenant is a gateway tenant an endpoint can be restricted to.
type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

