package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the read surface. Handlers wrap their own errors
// into these before responding.
var (
	ErrNotFound   = errors.New("report not found")
	ErrValidation = errors.New("invalid request")
	ErrUpstream   = errors.New("upstream unavailable")
)

// RespondError maps wrapped sentinels onto problem responses. Anything
// unrecognised becomes a detail-free 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "not-found", "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "invalid-request", "Invalid Request", err.Error())
	case errors.Is(err, ErrUpstream):
		Problem(w, http.StatusBadGateway, "export-upstream", "Upstream Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "internal", "Internal Error", "")
	}
}
