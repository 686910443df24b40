package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/techvault/skoop/domain/cluster"
	"github.com/techvault/skoop/domain/collection"
	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/internal/log"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError carries an explicit status code for a handler-level failure,
// such as a malformed query parameter.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// BadRequest creates a 400 APIError.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, nil)
}

// Code returns the HTTP status.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// Error implements error.
func (e *APIError) Error() string {
	if e.cause != nil {
		return "api error " + http.StatusText(e.code) + ": " + e.message + ": " + e.cause.Error()
	}
	return "api error " + http.StatusText(e.code) + ": " + e.message
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error { return e.cause }

// StatusFor maps an error to the HTTP status it is reported with. A page that
// could not be fetched for metadata is a 502.
func StatusFor(err error) int {
	var (
		apiErr   *APIError
		fetchErr *domainservice.FetchError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.code
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resource.ErrTitleRequired),
		errors.Is(err, resource.ErrInvalidType),
		errors.Is(err, collection.ErrNameRequired),
		errors.Is(err, domainservice.ErrInvalidURL),
		errors.Is(err, domainservice.ErrEmptyQuery),
		errors.Is(err, cluster.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and writes it as {"error": ...}. Server errors are
// reported with a generic message so driver and provider details stay in
// the logs.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := StatusFor(err)

	message := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message = apiErr.message
	}
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := append([]any{
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		}, log.ContextAttrs(r.Context())...)
		logger.Log(r.Context(), level, "request error", attrs...)
	}

	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
