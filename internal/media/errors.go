package media

import "fmt"

// GraphBuildError is returned when a textual description cannot be turned
// into a graph, or when an expected named element is missing from it.
type GraphBuildError struct {
	Description string
	Element     string
	Err         error
}

func (e *GraphBuildError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("graph has no element named %q", e.Element)
	}
	return fmt.Sprintf("failed to build graph %q: %v", e.Description, e.Err)
}

func (e *GraphBuildError) Unwrap() error { return e.Err }

// PropertyError reports a missing or mistyped element property.
type PropertyError struct {
	Element  string
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("element %s: property %q: %v", e.Element, e.Property, e.Err)
	}
	return fmt.Sprintf("element %s has no usable property %q", e.Element, e.Property)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// LinkError is returned when two pads refuse to link.
type LinkError struct {
	Src  string
	Sink string
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link %s to %s: %v", e.Src, e.Sink, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// StateChangeError is returned when the engine refuses a state change.
type StateChangeError struct {
	Element string
	State   State
	Err     error
}

func (e *StateChangeError) Error() string {
	return fmt.Sprintf("%s refused state %s: %v", e.Element, e.State, e.Err)
}

func (e *StateChangeError) Unwrap() error { return e.Err }
