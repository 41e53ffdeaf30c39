package state

import (
	"github.com/roach88/formic/internal/config"
)

// ElementState is the per-element lifecycle state derived from a
// snapshot: Pristine until the first edit, then Touched, then Valid or
// Invalid once validation has run.
type ElementState string

const (
	StatePristine ElementState = "pristine"
	StateTouched  ElementState = "touched"
	StateValid    ElementState = "valid"
	StateInvalid  ElementState = "invalid"
)

// Snapshot is an immutable capture of every element's value and derived
// state at one version. All derived maps for a given version are
// computed from the same values - readers never see visibility from
// version N combined with errors from version N+1.
//
// Absence of a key in Visibility or Enabled means the default: visible
// and enabled. Only elements an expression has turned off appear as
// false entries.
//
// Snapshots are never mutated after publication. The engine builds the
// next snapshot as a draft copy, mutates the draft, and publishes it
// whole.
type Snapshot struct {
	Version    int64
	Values     map[config.ElementID]config.Value
	Visibility map[config.ElementID]bool
	Enabled    map[config.ElementID]bool
	Errors     map[config.ElementID][]ValidationError
	Touched    map[config.ElementID]bool
	validated  map[config.ElementID]bool
}

// NewSnapshot creates an empty version-0 snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Values:     make(map[config.ElementID]config.Value),
		Visibility: make(map[config.ElementID]bool),
		Enabled:    make(map[config.ElementID]bool),
		Errors:     make(map[config.ElementID][]ValidationError),
		Touched:    make(map[config.ElementID]bool),
		validated:  make(map[config.ElementID]bool),
	}
}

// Value returns an element's current value. The second return is false
// when the element has no value at all (absent, distinct from Null).
func (s *Snapshot) Value(id config.ElementID) (config.Value, bool) {
	v, ok := s.Values[id]
	return v, ok
}

// Visible reports an element's visibility; absent entries default to
// visible.
func (s *Snapshot) Visible(id config.ElementID) bool {
	v, ok := s.Visibility[id]
	if !ok {
		return true
	}
	return v
}

// IsEnabled reports an element's enablement; absent entries default to
// enabled.
func (s *Snapshot) IsEnabled(id config.ElementID) bool {
	v, ok := s.Enabled[id]
	if !ok {
		return true
	}
	return v
}

// ErrorsFor returns an element's current error list. The returned slice
// must not be mutated.
func (s *Snapshot) ErrorsFor(id config.ElementID) []ValidationError {
	return s.Errors[id]
}

// IsTouched reports whether the element has received at least one edit.
func (s *Snapshot) IsTouched(id config.ElementID) bool {
	return s.Touched[id]
}

// StateOf derives the lifecycle state of an element.
func (s *Snapshot) StateOf(id config.ElementID) ElementState {
	if !s.Touched[id] {
		return StatePristine
	}
	if !s.validated[id] {
		return StateTouched
	}
	if len(s.Errors[id]) > 0 {
		return StateInvalid
	}
	return StateValid
}

// Draft returns a deep-enough copy for the engine to mutate: all maps
// are copied, error slices are replaced wholesale so sharing them is
// safe. Version carries over; the store assigns the next version at
// publish time.
func (s *Snapshot) Draft() *Snapshot {
	d := &Snapshot{
		Version:    s.Version,
		Values:     make(map[config.ElementID]config.Value, len(s.Values)),
		Visibility: make(map[config.ElementID]bool, len(s.Visibility)),
		Enabled:    make(map[config.ElementID]bool, len(s.Enabled)),
		Errors:     make(map[config.ElementID][]ValidationError, len(s.Errors)),
		Touched:    make(map[config.ElementID]bool, len(s.Touched)),
		validated:  make(map[config.ElementID]bool, len(s.validated)),
	}
	for k, v := range s.Values {
		d.Values[k] = v
	}
	for k, v := range s.Visibility {
		d.Visibility[k] = v
	}
	for k, v := range s.Enabled {
		d.Enabled[k] = v
	}
	for k, v := range s.Errors {
		d.Errors[k] = v
	}
	for k, v := range s.Touched {
		d.Touched[k] = v
	}
	for k, v := range s.validated {
		d.validated[k] = v
	}
	return d
}

// SetErrors replaces an element's error list wholesale and marks it
// validated. An empty list clears the entry entirely.
func (s *Snapshot) SetErrors(id config.ElementID, errs []ValidationError) {
	if len(errs) == 0 {
		delete(s.Errors, id)
	} else {
		s.Errors[id] = errs
	}
	s.validated[id] = true
}

// MarkTouched records that an element has been edited.
func (s *Snapshot) MarkTouched(id config.ElementID) {
	s.Touched[id] = true
	s.validated[id] = false
}
