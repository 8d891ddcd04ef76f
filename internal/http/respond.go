package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("Failed encoding response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses. Verdict errors keep their
// message; anything unrecognized becomes an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, core.ErrDuplicateBudget),
		errors.Is(err, core.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNoBudgetForMonth),
		errors.Is(err, core.ErrExceedsBudget),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrEmptyNarration),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrMissingProject),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordTooShort),
		isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// validationError marks errors raised while interpreting well-formed input.
type validationError struct {
	err error
}

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

func isValidationError(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
