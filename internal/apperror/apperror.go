// Package apperror defines the error taxonomy shared by the ledger services and the
// HTTP layer. Services return these types; handlers map them to status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing field, a non-positive quantity or any other
// input the ledger refuses before touching state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an id absent from its collection.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a write rejected because the stored state moved on:
// a non-pending request, a duplicate stock code or a stale revision.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrRevisionMismatch is returned by repositories when an optimistic write loses.
// Services wrap it into a ConflictError.
var ErrRevisionMismatch = errors.New("revision mismatch")

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target) || errors.Is(err, ErrRevisionMismatch)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the error body returned to clients. Internal errors never leak
// their message; only typed errors do.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewEnvelope(message string, err error) Envelope {
	detail := "internal server error"
	if HTTPStatus(err) != http.StatusInternalServerError {
		detail = err.Error()
	}
	return Envelope{Success: false, Message: message, Error: detail}
}
