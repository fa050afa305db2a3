// Package errors provides typed errors for the tms project.
//
// This package defines domain-specific error types for the different
// subsystems (config, credentials, remote fetch). All error types implement
// the standard error interface and support errors.Is() and errors.As() from
// the standard library and cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrCancelled signals that an in-progress scan or fetch was cancelled.
// It is an expected early-exit condition, not a failure.
var ErrCancelled = errors.New("cancelled")

// IsCancelled reports whether err is (or wraps) ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// ConfigError represents configuration-related errors. These are the only
// fatal errors in the system: they are surfaced before any interactive
// component starts.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// CredentialError represents a failure to obtain credentials for a profile.
// It is scoped to that profile: other profiles and the local mode are
// unaffected.
type CredentialError struct {
	Profile string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials for profile %q: %s", e.Profile, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *CredentialError) Unwrap() error {
	return e.Cause
}

// NewCredentialError creates a new CredentialError.
func NewCredentialError(profile, message string) *CredentialError {
	return &CredentialError{Profile: profile, Message: message}
}

// NewCredentialErrorWithCause creates a new CredentialError with an
// underlying cause.
func NewCredentialErrorWithCause(profile, message string, cause error) *CredentialError {
	return &CredentialError{Profile: profile, Message: message, Cause: cause}
}

// FetchError represents a network or API failure while fetching the
// repository list for a profile. Like CredentialError it is profile-scoped.
type FetchError struct {
	Profile    string
	StatusCode int // HTTP status code if applicable
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch for profile %q failed (HTTP %d): %s", e.Profile, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch for profile %q failed: %s", e.Profile, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError creates a new FetchError.
func NewFetchError(profile, message string) *FetchError {
	return &FetchError{Profile: profile, Message: message}
}

// NewFetchErrorWithStatus creates a new FetchError with an HTTP status code.
func NewFetchErrorWithStatus(profile string, statusCode int, message string) *FetchError {
	return &FetchError{
		Profile:    profile,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// NewFetchErrorWithCause creates a new FetchError with an underlying cause.
func NewFetchErrorWithCause(profile, message string, cause error) *FetchError {
	return &FetchError{Profile: profile, Message: message, Cause: cause}
}

// isRetryableHTTPStatus reports whether an HTTP status code indicates a
// transient condition.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
