package harness

import (
	"github.com/roach88/formic/internal/state"
)

// StepTrace is the recorded outcome of one executed step.
type StepTrace struct {
	Kind       string `json:"kind"` // "set" | "action" | "validate_all"
	Element    string `json:"element,omitempty"`
	Version    int64  `json:"version"`
	ErrorCount int    `json:"error_count"`
	Blocked    bool   `json:"blocked,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace records each step's outcome in order.
	Trace []StepTrace `json:"trace"`

	// Errors lists expectation and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`

	// Final is the snapshot after the last step.
	Final *state.Snapshot `json:"-"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []StepTrace{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
