package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/config"
)

// RuntimeError represents a failure of an engine operation itself, as
// opposed to a validation error attached to an element. Operations
// fail when the caller references something the configuration does not
// define; evaluation failures inside a transaction never surface here.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ElementID identifies the element involved, if any.
	ElementID config.ElementID

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownElement indicates an operation referenced an
	// element id the configuration does not define.
	ErrCodeUnknownElement RuntimeErrorCode = "UNKNOWN_ELEMENT"

	// ErrCodeUnknownAction indicates a dispatched action id has no
	// declaration on the origin element.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeNoCollaborator indicates an action needed a navigation or
	// custom-action collaborator that was not configured.
	ErrCodeNoCollaborator RuntimeErrorCode = "NO_COLLABORATOR"

	// ErrCodeStopped indicates the engine's event loop is no longer
	// accepting work.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("%s: %s (element=%s)", e.Code, e.Message, e.ElementID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownElement reports whether err is an unknown-element error.
// Uses errors.As to handle wrapped errors.
func IsUnknownElement(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownElement
}

// NewUnknownElementError creates a RuntimeError for an operation on an
// element the configuration does not define.
func NewUnknownElementError(id config.ElementID) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeUnknownElement,
		Message:   "element is not defined in the configuration",
		ElementID: id,
		Details:   map[string]string{"errorType": "unknown_element"},
	}
}

// ConfigurationError wraps the compiler errors that blocked engine
// construction. Fatal: there is no degraded mode for a broken
// configuration.
type ConfigurationError struct {
	Errors []compiler.ConfigError
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = ce.Error()
	}
	return fmt.Sprintf("configuration invalid (%d errors): %s", len(e.Errors), strings.Join(msgs, "; "))
}
