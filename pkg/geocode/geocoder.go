// Package geocode resolves free-text locations to coordinates.
//
// Providers report a Status alongside the result. A query that resolves to
// nothing is not an error: it yields StatusZeroResults and the sentinel
// location models.Unresolved. Errors are reserved for transport and decoding
// failures.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"motostats/internal/models"
)

type Status string

const (
	StatusOK          Status = "OK"
	StatusZeroResults Status = "ZERO_RESULTS"
	StatusInvalid     Status = "INVALID_REQUEST"
)

// Result is the outcome of geocoding one query.
type Result struct {
	Query       string        `json:"query"`
	Location    models.LatLng `json:"location"`
	DisplayName string        `json:"displayName,omitempty"`
	Provider    string        `json:"provider"`
	Status      Status        `json:"status"`
}

func (r *Result) OK() bool {
	return r != nil && r.Status == StatusOK
}

// Geocoder is implemented by every provider and wrapper in this package.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// StatusError is returned by callers that require a resolved location.
type StatusError struct {
	Query  string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Geocode was not successful for the following reason: %s", e.Status)
}

// IsStatusError reports whether err carries a non-OK geocoding status.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

func zeroResults(query, provider string) *Result {
	return &Result{Query: query, Location: models.Unresolved, Provider: provider, Status: StatusZeroResults}
}

func invalid(query, provider string) *Result {
	return &Result{Query: query, Location: models.Unresolved, Provider: provider, Status: StatusInvalid}
}
