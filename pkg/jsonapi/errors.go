package jsonapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pustaka/pkg/common"
	"pustaka/pkg/logger"
)

// ContentType is the JSON:API media type used on every request and response.
const ContentType = "application/vnd.api+json"

// Error is the internal failure type the engine raises. It carries enough
// information to render a JSON:API error object without leaking internals.
type Error struct {
	Status int    // HTTP status code
	Code   string // stable machine-readable code
	Title  string
	Detail string

	// Source locates the offending input. Pointer locates it in the
	// request body or names the query parameter at fault; Parameter is
	// set alongside Pointer for query-parameter failures.
	Pointer   string
	Parameter string

	// Err is the underlying cause, logged but never serialized.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports invalid request input. param names the query
// parameter at fault; pass "" when the fault is in the body. The parameter
// name is carried in both source members so clients reading either find it.
func NewValidationError(code, detail, param string) *Error {
	return &Error{
		Status:    http.StatusBadRequest,
		Code:      code,
		Title:     "Validation Error",
		Detail:    detail,
		Pointer:   param,
		Parameter: param,
	}
}

// NewBodyValidationError reports invalid request body input located by a
// JSON pointer.
func NewBodyValidationError(code, detail, pointer string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    code,
		Title:   "Validation Error",
		Detail:  detail,
		Pointer: pointer,
	}
}

// NewNotFoundError reports an unresolvable primary resource.
func NewNotFoundError(resourceType, id string) *Error {
	return &Error{
		Status: http.StatusNotFound,
		Code:   "not_found",
		Title:  "Not Found",
		Detail: fmt.Sprintf("No %s resource with id %s", resourceType, id),
	}
}

// NewConflictError reports a uniqueness or state conflict.
func NewConflictError(detail string) *Error {
	return &Error{
		Status: http.StatusConflict,
		Code:   "conflict",
		Title:  "Conflict",
		Detail: detail,
	}
}

// NewUnauthorizedError reports a missing or invalid credential.
func NewUnauthorizedError(detail string) *Error {
	return &Error{
		Status: http.StatusUnauthorized,
		Code:   "unauthorized",
		Title:  "Unauthorized",
		Detail: detail,
	}
}

// NewForbiddenError reports an insufficient grant.
func NewForbiddenError(detail string) *Error {
	return &Error{
		Status: http.StatusForbidden,
		Code:   "forbidden",
		Title:  "Forbidden",
		Detail: detail,
	}
}

// NewInternalError wraps a backing-store or unexpected failure. The cause is
// kept for logging; clients only ever see the generic detail.
func NewInternalError(err error) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Code:   "internal_error",
		Title:  "Internal Server Error",
		Detail: "An internal error occurred",
		Err:    err,
	}
}

// MapError normalizes any error into an *Error. Unique-constraint failures
// from the backing store become 409s; everything else unexpected becomes a
// generic 500.
func MapError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if isUniqueViolation(err) {
		return NewConflictError("A resource with the same unique value already exists")
	}
	return NewInternalError(err)
}

// isUniqueViolation detects uniqueness failures across postgres (pgx error
// text carries SQLSTATE 23505) and sqlite drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(strings.ToUpper(msg), "UNIQUE CONSTRAINT")
}

// ErrorObject is one member of a JSON:API errors array.
type ErrorObject struct {
	Status string       `json:"status"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource locates the input at fault.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorDocument is a JSON:API error response body.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// WriteError logs err and writes it as a JSON:API error document. Internal
// causes never reach the response body.
func WriteError(w common.ResponseWriter, err error) {
	apiErr := MapError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", apiErr)
	} else {
		logger.Debug("Request rejected: %v", apiErr)
	}

	obj := ErrorObject{
		Status: strconv.Itoa(apiErr.Status),
		Code:   apiErr.Code,
		Title:  apiErr.Title,
		Detail: apiErr.Detail,
	}
	if apiErr.Pointer != "" || apiErr.Parameter != "" {
		obj.Source = &ErrorSource{Pointer: apiErr.Pointer, Parameter: apiErr.Parameter}
	}

	w.SetHeader("Content-Type", ContentType)
	w.WriteHeader(apiErr.Status)
	if werr := writeJSONBody(w, ErrorDocument{Errors: []ErrorObject{obj}}); werr != nil {
		logger.Warn("Failed to write error response: %v", werr)
	}
}
