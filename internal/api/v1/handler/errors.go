package handler

import (
	"errors"
	"net/http"

	"app/internal/plan"
	"app/internal/service"
)

// writeServiceError maps a service error to an HTTP status. The prefix keeps
// the response message specific to the failed action.
func writeServiceError(w http.ResponseWriter, prefix string, err error) {
	var qe *plan.QuotaError
	switch {
	case errors.As(err, &qe):
		http.Error(w, qe.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrCompanyNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrFileNotFound):
		http.Error(w, prefix+": not found", http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, prefix+": forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPlanChangeTooSoon),
		errors.Is(err, service.ErrAlreadyVerified):
		http.Error(w, prefix+": "+err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotVerified):
		http.Error(w, prefix+": "+err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenExpired):
		http.Error(w, prefix+": "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrResendLimit):
		http.Error(w, prefix+": "+err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, prefix+": "+err.Error(), http.StatusInternalServerError)
	}
}
