package handlers

import (
	"errors"
	"net/http"

	"github.com/courseguardian/backend/internal/services"
)

// errorStatuses maps service errors to HTTP statuses; order matters only for wrapped chains
var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrMalformedToken, http.StatusUnauthorized},
	{services.ErrInvalidSignature, http.StatusUnauthorized},
	{services.ErrAccessExpired, http.StatusForbidden},
	{services.ErrUnknownSubject, http.StatusNotFound},
	{services.ErrNotEnrolled, http.StatusNotFound},
	{services.ErrContentNotFound, http.StatusNotFound},
	{services.ErrMediaNotFound, http.StatusNotFound},
	{services.ErrInvalidRange, http.StatusRequestedRangeNotSatisfiable},
	{services.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{services.ErrPathAlreadySet, http.StatusConflict},
	{services.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
	{services.ErrInvalidArgument, http.StatusBadRequest},
}

// errorStatus returns the HTTP status and client-facing message for err.
// Unknown errors become 500 with a generic message.
func errorStatus(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
