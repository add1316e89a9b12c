// Package response renders JSON bodies and errors for the admin host.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eighteen73/custom-tables/internal/orm/crud"
	"github.com/eighteen73/custom-tables/internal/orm/query"
	"github.com/eighteen73/custom-tables/internal/orm/schema"
	"github.com/eighteen73/custom-tables/internal/tables"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// RenderJSON writes v as JSON with the given status
func RenderJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderError writes err with the given status
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(statusCode),
	})
}

// RenderNotFound writes a 404 with message
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, errors.New(message))
}

// RenderBadRequest writes a 400 with message
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, errors.New(message))
}

// StatusFor maps registry and store errors to an HTTP status
func StatusFor(err error) int {
	var cfgErr *schema.ConfigurationError
	switch {
	case tables.IsNotRegistered(err), crud.IsNotFound(err):
		return http.StatusNotFound
	case crud.IsUniqueViolation(err), errors.Is(err, crud.ErrForeignKeyViolation):
		return http.StatusConflict
	case crud.IsNotNullViolation(err), errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, crud.ErrFieldNotFound),
		errors.Is(err, crud.ErrEmptyUpdate),
		errors.Is(err, crud.ErrMetaNotSupported),
		errors.Is(err, query.ErrInvalidColumn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RenderStoreError writes err with the status chosen by StatusFor.
// Internal errors are not echoed to the client.
func RenderStoreError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		RenderError(w, status, errors.New("Internal server error"))
		return
	}
	RenderError(w, status, err)
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
