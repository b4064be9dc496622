// Package errors provides a lightweight structured error type for
// category-based classification in the Strava client and CLI.
package errors

import "fmt"

// ErrorCategory classifies a RidelogError for presentation and exit codes.
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryAPI     ErrorCategory = "api"
	CategoryRateLimit ErrorCategory = "ratelimit"

	// Local processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryState      ErrorCategory = "state"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ContextFields carries structured context for a RidelogError.
type ContextFields map[string]any

// RidelogError is a structured error with category and context.
type RidelogError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *RidelogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *RidelogError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *RidelogError) WithContext(key string, value any) *RidelogError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new RidelogError.
func New(category ErrorCategory, message string) *RidelogError {
	return &RidelogError{Category: category, Message: message}
}

// Wrap creates a new RidelogError that wraps an existing error.
func Wrap(err error, category ErrorCategory, message string) *RidelogError {
	return &RidelogError{Category: category, Message: message, Cause: err}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	if re, ok := err.(*RidelogError); ok {
		return re.Category == category
	}
	return false
}
