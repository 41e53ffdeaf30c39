// Package compiler turns raw parsed configuration into the validated,
// immutable model the engine accepts, and rejects broken configuration
// at load time so the engine never discovers structural problems
// mid-transaction.
package compiler

import "fmt"

// Configuration error codes (E100-E199)
const (
	// General errors (E100)
	ErrDecode = "E100" // configuration could not be decoded

	// Structure errors (E101-E109)
	ErrEmptyConfig      = "E101" // configuration has no pages
	ErrDuplicateElement = "E102" // duplicate element id
	ErrDuplicateSection = "E103" // duplicate section id
	ErrDuplicatePage    = "E104" // duplicate page id
	ErrMissingID        = "E105" // element/section/page without id

	// Rule errors (E110-E119)
	ErrBadRuleType     = "E110" // unknown rule type
	ErrBadPattern      = "E111" // pattern rule with invalid regex
	ErrBadBounds       = "E112" // length/range rule with inverted or missing bounds
	ErrBadRelation     = "E113" // crossField rule with unknown relation
	ErrBadExpression   = "E114" // expression failed to parse
	ErrMissingFunction = "E115" // custom rule without function name

	// Reference errors (E120-E129)
	ErrUnknownDependent   = "E120" // dependentIds names a missing element
	ErrUnknownRelated     = "E121" // crossField relatedField names a missing element
	ErrUnknownRef         = "E122" // expression references a missing element
	ErrUnknownJourneyPage = "E123" // journey names a missing page
	ErrUnknownNavTarget   = "E124" // navigate action targets a missing page

	// Dependency graph errors (E130-E139)
	ErrDependencyCycle = "E130" // dependentIds graph contains a cycle
)

// ConfigError represents one configuration validation failure.
// Configuration errors are fatal: the engine refuses to start on a
// configuration that produced any.
type ConfigError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ConfigError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func errf(code, field, format string, args ...any) ConfigError {
	return ConfigError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}
