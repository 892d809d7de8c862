// Package server provides the local HTTP proxy API over the hh client and
// the mass-response workflow.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/schemas"
	"github.com/jonathan/hhcli/internal/targets"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrHistoryDisabled is returned by history endpoints when no database is configured.
var ErrHistoryDisabled = errors.New("response history is not configured (set DATABASE_URL)")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		cfgErr     *respond.ConfigError
		schemaErr  *schemas.ValidationError
		formatErr  *targets.UnsupportedFormatError
		apiErr     *hh.APIError
		transport  *hh.TransportError
		connErr    *respond.ConnectivityError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &cfgErr),
		errors.As(err, &schemaErr), errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.Is(err, hh.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 600 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &connErr), errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
