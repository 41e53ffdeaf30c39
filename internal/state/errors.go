package state

import (
	"fmt"
	"time"

	"github.com/roach88/formic/internal/config"
)

// ErrorKind categorizes validation errors. The set is closed: every
// error the engine can attach to an element is one of these nine kinds.
type ErrorKind string

const (
	// KindRequired - missing value on a required element.
	KindRequired ErrorKind = "REQUIRED"

	// KindPattern - regex rule failure.
	KindPattern ErrorKind = "PATTERN"

	// KindLength - string length rule failure.
	KindLength ErrorKind = "LENGTH"

	// KindRange - numeric bounds rule failure.
	KindRange ErrorKind = "RANGE"

	// KindCrossField - relational rule between two elements failed.
	KindCrossField ErrorKind = "CROSS_FIELD"

	// KindCustomValidation - named custom-function rule failed.
	KindCustomValidation ErrorKind = "CUSTOM_VALIDATION"

	// KindDependency - a dependency expression itself failed to
	// evaluate. This reports broken configuration logic, not bad user
	// data; the affected derived attribute falls back to its default.
	KindDependency ErrorKind = "DEPENDENCY"

	// KindValidationRule - generic fallback for a rule not covered by
	// the more specific kinds.
	KindValidationRule ErrorKind = "VALIDATION_RULE"

	// KindGeneric - catch-all for engine-internal conditions.
	KindGeneric ErrorKind = "GENERIC"
)

// ValidationError is one error attached to an element. Kind determines
// which of the kind-specific fields are populated.
//
// Errors are plain data for inline display; they are never used as
// control flow. The engine replaces an element's error list wholesale
// on each re-validation.
type ValidationError struct {
	Kind      ErrorKind        `json:"kind"`
	ElementID config.ElementID `json:"elementId"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`

	// Pattern (KindPattern)
	Pattern string `json:"pattern,omitempty"`

	// Length bounds (KindLength)
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`

	// Numeric bounds (KindRange)
	MinValue *float64 `json:"minValue,omitempty"`
	MaxValue *float64 `json:"maxValue,omitempty"`

	// Cross-field context (KindCrossField)
	RelatedField config.ElementID `json:"relatedField,omitempty"`
	Relation     config.Relation  `json:"relation,omitempty"`
	RelatedValue config.Value     `json:"-"`

	// Custom function context (KindCustomValidation)
	Function string        `json:"function,omitempty"`
	Params   config.Object `json:"-"`

	// Dependency context (KindDependency)
	DependencyExpression string `json:"dependencyExpression,omitempty"`
	DependencyType       string `json:"dependencyType,omitempty"`

	// Generic rule context (KindValidationRule)
	RuleType  config.RuleType `json:"ruleType,omitempty"`
	RuleValue string          `json:"ruleValue,omitempty"`

	// Engine-internal context (KindGeneric)
	ErrorType string            `json:"errorType,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (element=%s)", e.Kind, e.Message, e.ElementID)
}

// Blocking reports whether this error kind gates submission. Only the
// five data-level kinds block: a broken dependency expression or a
// custom-function failure must not stop the user from submitting a
// form they filled in correctly.
func (e ValidationError) Blocking() bool {
	switch e.Kind {
	case KindRequired, KindPattern, KindLength, KindRange, KindCrossField:
		return true
	default:
		return false
	}
}

// NewRequiredError creates a KindRequired error.
func NewRequiredError(id config.ElementID, message string, now time.Time) ValidationError {
	if message == "" {
		message = "value is required"
	}
	return ValidationError{Kind: KindRequired, ElementID: id, Message: message, Timestamp: now}
}

// NewPatternError creates a KindPattern error.
func NewPatternError(id config.ElementID, pattern, message string, now time.Time) ValidationError {
	if message == "" {
		message = fmt.Sprintf("value does not match pattern %s", pattern)
	}
	return ValidationError{Kind: KindPattern, ElementID: id, Message: message, Timestamp: now, Pattern: pattern}
}

// NewLengthError creates a KindLength error.
func NewLengthError(id config.ElementID, min, max *int, message string, now time.Time) ValidationError {
	if message == "" {
		message = "value length out of bounds"
	}
	return ValidationError{Kind: KindLength, ElementID: id, Message: message, Timestamp: now, MinLength: min, MaxLength: max}
}

// NewRangeError creates a KindRange error.
func NewRangeError(id config.ElementID, min, max *float64, message string, now time.Time) ValidationError {
	if message == "" {
		message = "value out of range"
	}
	return ValidationError{Kind: KindRange, ElementID: id, Message: message, Timestamp: now, MinValue: min, MaxValue: max}
}

// NewCrossFieldError creates a KindCrossField error.
func NewCrossFieldError(id, related config.ElementID, relation config.Relation, relatedValue config.Value, message string, now time.Time) ValidationError {
	if message == "" {
		message = fmt.Sprintf("value must be %s %s", relation, related)
	}
	return ValidationError{
		Kind: KindCrossField, ElementID: id, Message: message, Timestamp: now,
		RelatedField: related, Relation: relation, RelatedValue: relatedValue,
	}
}

// NewCustomValidationError creates a KindCustomValidation error.
func NewCustomValidationError(id config.ElementID, function string, params config.Object, message string, now time.Time) ValidationError {
	if message == "" {
		message = fmt.Sprintf("validation %s failed", function)
	}
	return ValidationError{Kind: KindCustomValidation, ElementID: id, Message: message, Timestamp: now, Function: function, Params: params}
}

// NewDependencyError creates a KindDependency error. depType names the
// derived attribute whose expression failed ("visibility", "enablement",
// "crossField", "custom").
func NewDependencyError(id config.ElementID, expression, depType string, cause error, now time.Time) ValidationError {
	return ValidationError{
		Kind: KindDependency, ElementID: id,
		Message:              fmt.Sprintf("dependency evaluation failed: %v", cause),
		Timestamp:            now,
		DependencyExpression: expression,
		DependencyType:       depType,
	}
}

// NewValidationRuleError creates a KindValidationRule error.
func NewValidationRuleError(id config.ElementID, ruleType config.RuleType, ruleValue, message string, now time.Time) ValidationError {
	if message == "" {
		message = fmt.Sprintf("rule %s failed", ruleType)
	}
	return ValidationError{Kind: KindValidationRule, ElementID: id, Message: message, Timestamp: now, RuleType: ruleType, RuleValue: ruleValue}
}

// NewGenericError creates a KindGeneric error.
func NewGenericError(id config.ElementID, errorType, message string, details map[string]string, now time.Time) ValidationError {
	return ValidationError{Kind: KindGeneric, ElementID: id, Message: message, Timestamp: now, ErrorType: errorType, Details: details}
}
