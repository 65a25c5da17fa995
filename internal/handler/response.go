package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//
//	{"error": "not_found", "message": "post not found with id abc123"}
//
// Validation failures add the offending fields:
//
//	{"error": "validation_error", "message": "invalid request",
//	 "fields": [{"field": "email", "message": "please include a valid email"}]}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/devconnector/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string       `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string       `json:"message"` // Human-readable description
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError names one request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse is the body of operations that have nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once
// Encode writes, the headers are sent and later changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status and machine-readable kind.
//
// errors.Is() walks the entire error chain, so a service error like
//
//	fmt.Errorf("liking post: %w", apperror.AlreadyLiked(id))
//
// still matches apperror.ErrAlreadyLiked.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrAlreadyLiked):
		return http.StatusBadRequest, "already_liked"
	case errors.Is(err, apperror.ErrNotLiked):
		return http.StatusBadRequest, "not_liked"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		// ErrStorage and anything unrecognised.
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// NEVER expose internal error details to the client: a storage failure's
// chain can contain SQL or file paths, so 500s get a generic message.
//
// Client errors are logged at Debug. Storage failures are already logged
// by the service and the request logger, so they are not repeated here.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		logger.Debug("request rejected", slog.String("error", "validation_error"), slog.Int("fields", len(verrs)))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request",
			Fields:  fieldErrors(verrs),
		})
		return
	}

	status, kind := statusFor(err)
	if status < http.StatusInternalServerError {
		logger.Debug("request rejected", slog.String("error", kind), slog.String("cause", err.Error()))
	}

	message := "an internal error occurred"
	var appErr *apperror.AppError
	if status != http.StatusInternalServerError {
		message = http.StatusText(status)
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	}

	resp := ErrorResponse{Error: kind, Message: message}
	if appErr != nil && appErr.Field != "" && status == http.StatusBadRequest {
		resp.Fields = []FieldError{{Field: appErr.Field, Message: appErr.Message}}
	}

	writeJSON(w, status, resp)
}

// NotFound answers unknown API routes in the same JSON shape as every other
// error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "route not found",
	})
}
