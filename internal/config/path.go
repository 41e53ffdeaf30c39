package config

import (
	"fmt"
	"strings"
)

// Path is a hierarchical binding path addressing a value in the form
// state: an element id, optionally followed by keys into the element's
// object value ("applicant.address.city"). The leading segments may
// also be a "sectionID.componentID" pair, resolved against the
// configuration's alias index.
type Path string

// ParsePath validates a dotted binding path.
// Empty paths and empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return "", fmt.Errorf("empty binding path")
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return "", fmt.Errorf("binding path %q has an empty segment", s)
		}
	}
	return Path(s), nil
}

// Segments splits the path on dots.
func (p Path) Segments() []string {
	return strings.Split(string(p), ".")
}

// Head returns the first segment.
func (p Path) Head() string {
	s := string(p)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}
