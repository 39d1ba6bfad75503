package core

import (
	"strings"
)

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}

type ErrorAlreadyExists struct {
}

func (e ErrorAlreadyExists) Error() string {
	return "Already Exists"
}

func NewErrorAlreadyExists() ErrorAlreadyExists {
	return ErrorAlreadyExists{}
}

type ErrorPermissionDenied struct {
}

func (e ErrorPermissionDenied) Error() string {
	return "Permission Denied"
}

func NewErrorPermissionDenied() ErrorPermissionDenied {
	return ErrorPermissionDenied{}
}

type ErrorInvalidTransition struct {
}

func (e ErrorInvalidTransition) Error() string {
	return "Invalid State Transition"
}

func NewErrorInvalidTransition() ErrorInvalidTransition {
	return ErrorInvalidTransition{}
}

type ErrorUnauthorized struct {
}

func (e ErrorUnauthorized) Error() string {
	return "Unauthorized"
}

func NewErrorUnauthorized() ErrorUnauthorized {
	return ErrorUnauthorized{}
}

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field failures surfaced before any
// network or database call is made.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "Validation Failed: " + strings.Join(msgs, "; ")
}

func NewValidationError(fields ...FieldError) ValidationError {
	return ValidationError{Fields: fields}
}
