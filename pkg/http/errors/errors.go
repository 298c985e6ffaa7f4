package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error for transport mapping and retry decisions.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindForbidden           Kind = "forbidden"
	KindInvalidState        Kind = "invalid_state"
	KindFull                Kind = "full"
	KindInsufficientPlayers Kind = "insufficient_players"
	KindNotAllReady         Kind = "not_all_ready"
	KindInternal            Kind = "internal"
)

// Error is a typed domain error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a typed error from a kind, stable code and human message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// InvalidInput marks malformed or missing caller input.
func InvalidInput(code, message string) *Error {
	return New(KindInvalidInput, code, message)
}

// NotFound marks a missing or archived resource.
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Conflict marks duplicate joins, duplicate submissions and code collisions.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Forbidden marks an authenticated but unauthorized request.
func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

// InvalidState marks an operation not valid for the current lifecycle state.
func InvalidState(code, message string) *Error {
	return New(KindInvalidState, code, message)
}

// Internal wraps an unexpected collaborator failure.
func Internal(code, message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, cause: cause}
}

// KindOf extracts the Kind from an error chain; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable code from an error chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindFull, KindInsufficientPlayers, KindNotAllReady:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Respond writes an error as a standardized JSON response. Internal causes are
// never leaked to the client.
func Respond(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal(CodeInternalError, "unexpected error", err)
	}

	msg := e.Message
	if e.Kind == KindInternal {
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(e.Kind))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: e.Code, Message: msg})
}

// RespondError writes an arbitrary status + code + message response.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// RespondUnauthorized writes an unauthorized error response.
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}
