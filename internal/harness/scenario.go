package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted form session: a configuration, a
// sequence of edits and actions, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden
	// file when the scenario runs under golden comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Config is the path to the configuration JSON, relative to the
	// scenario file. Empty means the runner was given a configuration
	// directly.
	Config string `yaml:"config,omitempty"`

	// Steps is the scripted session, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final snapshot after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scripted operation. Exactly one of Set, Action or
// ValidateAll must be populated.
type Step struct {
	// Set edits an element's value.
	Set *SetStep `yaml:"set,omitempty"`

	// Action dispatches the action attached to the named element.
	Action string `yaml:"action,omitempty"`

	// ValidateAll forces validation of every element.
	ValidateAll bool `yaml:"validateAll,omitempty"`

	// Expect optionally validates the step's outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// SetStep is a value edit.
type SetStep struct {
	Element string `yaml:"element"`
	Value   any    `yaml:"value"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Blocked asserts whether a submit was refused. Only meaningful on
	// action steps.
	Blocked *bool `yaml:"blocked,omitempty"`

	// Error asserts that the step failed and the error contains this
	// substring. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates one aspect of the final snapshot.
type Assertion struct {
	// Type is one of the Assert* constants below.
	Type string `yaml:"type"`

	// Element names the element under assertion (all types except
	// error_count).
	Element string `yaml:"element,omitempty"`

	// Equals is the expected value (type "value").
	Equals any `yaml:"equals,omitempty"`

	// Visible is the expected visibility (type "visible").
	Visible *bool `yaml:"visible,omitempty"`

	// Enabled is the expected enablement (type "enabled").
	Enabled *bool `yaml:"enabled,omitempty"`

	// Kinds lists the expected error kinds on the element, in order
	// (type "errors"). An empty list asserts the element is error-free.
	Kinds []string `yaml:"kinds"`

	// State is the expected lifecycle state (type "state"):
	// pristine, touched, valid or invalid.
	State string `yaml:"state,omitempty"`

	// Count is the expected total number of errors across all elements
	// (type "error_count").
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertValue      = "value"
	AssertVisible    = "visible"
	AssertEnabled    = "enabled"
	AssertErrors     = "errors"
	AssertState      = "state"
	AssertErrorCount = "error_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping an
// assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		n := 0
		if step.Set != nil {
			n++
			if step.Set.Element == "" {
				return fmt.Errorf("step %d: set.element is required", i)
			}
		}
		if step.Action != "" {
			n++
		}
		if step.ValidateAll {
			n++
		}
		if n != 1 {
			return fmt.Errorf("step %d: exactly one of set, action, validateAll required", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertValue, AssertVisible, AssertEnabled, AssertErrors, AssertState:
			if a.Element == "" {
				return fmt.Errorf("assertion %d: element is required for type %s", i, a.Type)
			}
		case AssertErrorCount:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
