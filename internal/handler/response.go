package handler

// Error responses come in two shapes. The login and register endpoints answer
// with JSON, {"error": "...", "message": "..."}, so a script can tell a
// duplicate from a bad password. Everything else answers HTML forms, where a
// short text body is enough.
//
// Either way the status comes from statusFor. Anything that is not a known
// client error is logged and collapses to a generic 500, so SQL text and file
// paths never reach the browser.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
)

const internalErrorMessage = "Internal Server Error"

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a domain error to its HTTP status and a machine-readable kind.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// clientMessage returns the text shown to the user for err. Only client
// errors carry their own message.
func clientMessage(err error, status int) string {
	var appErr *apperror.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		return appErr.Message
	}
	return internalErrorMessage
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError sends err as a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := statusFor(err)
	if status == http.StatusInternalServerError {
		logUnexpected(r, logger, err)
	}
	writeJSON(w, status, ErrorResponse{Error: kind, Message: clientMessage(err, status)})
}

// writeTextError sends err as a plain-text body.
func writeTextError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		logUnexpected(r, logger, err)
	}
	http.Error(w, clientMessage(err, status), status)
}

func logUnexpected(r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// redirect sends a 303 so the browser follows up with a GET.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
