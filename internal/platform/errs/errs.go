// Package errs defines the error kinds shared by the claims and payments
// domains. Handlers map these onto HTTP statuses; services return them
// directly so callers can branch with errors.As.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NotFoundError indicates the referenced entity does not exist within the
// caller's location scope. Records from other locations are reported as
// not found, never as forbidden.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFound builds a NotFoundError for the given resource and identifier.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports invalid input. Fields lists the offending fields
// or, for allocation failures, a description that names the line index.
type ValidationError struct {
	Msg    string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Fields, ", "))
}

// NewValidation builds a ValidationError with an optional field list.
func NewValidation(msg string, fields ...string) *ValidationError {
	return &ValidationError{Msg: msg, Fields: fields}
}

// InvalidTransitionError reports a claim status transition that is not in
// the transition table.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid claim status transition %s -> %s", e.From, e.To)
}

// ConflictError reports a lost-update race detected by the optimistic
// version check. The caller should re-fetch and retry.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently, re-fetch and retry", e.Resource, e.ID)
}

// ExternalSyncError wraps a failure to push an allocation line to the
// external invoicing system. It is collected per line, never fatal to the
// allocation as a whole.
type ExternalSyncError struct {
	InvoiceRef string
	Err        error
}

func (e *ExternalSyncError) Error() string {
	return fmt.Sprintf("recording payment against invoice %s: %v", e.InvoiceRef, e.Err)
}

func (e *ExternalSyncError) Unwrap() error { return e.Err }

// HTTPStatus maps a domain error onto the status code handlers should
// return. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	var (
		notFound   *NotFoundError
		validation *ValidationError
		transition *InvalidTransitionError
		conflict   *ConflictError
		sync       *ExternalSyncError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &transition):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &sync):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
