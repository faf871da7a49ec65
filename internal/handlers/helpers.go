package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bibforms/forms-api/internal/repository"
	"github.com/bibforms/forms-api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Unrecognized
// errors are reported as internal without leaking their text.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrFormNotFound),
		errors.Is(err, repository.ErrResponseNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMissingFormID),
		errors.Is(err, service.ErrInvalidResponseData),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, service.ErrInvalidSchema),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrMissingFileFields),
		errors.Is(err, service.ErrFormNotPublished):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
