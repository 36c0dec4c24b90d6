package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

// errorStatus pairs a domain sentinel with the status and code it is reported as.
type errorStatus struct {
	target error
	status int
	code   string
}

var errorStatuses = []errorStatus{
	{domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	{domain.ErrForbidden, http.StatusForbidden, helpers.ErrCodeForbidden},
	{domain.ErrNotAdmin, http.StatusForbidden, helpers.ErrCodeForbidden},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, helpers.ErrCodeUnauthorized},
	{domain.ErrSessionNotFound, http.StatusUnauthorized, helpers.ErrCodeUnauthorized},
	{domain.ErrInvalidInput, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrFlagReasonTooShort, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrInvalidImage, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrConfirmationRequired, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrImageTooLarge, http.StatusRequestEntityTooLarge, helpers.ErrCodePayloadTooLarge},
	{domain.ErrDuplicateEmail, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrGuestExists, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrAlreadyFlagged, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrSignInUnavailable, http.StatusServiceUnavailable, helpers.ErrCodeServiceUnavailable},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, helpers.ErrCodeServiceUnavailable},
}

// writeServiceError maps a service error to the response envelope. Unmapped errors are
// logged and reported as 500 without their details.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, es := range errorStatuses {
		if errors.Is(err, es.target) {
			helpers.WriteJSONError(w, es.status, es.code, err.Error())
			return
		}
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
}

// requireUserID writes 401 and returns false when the request carries no authenticated user.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return userID, ok
}
