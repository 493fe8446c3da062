package tracker

import "errors"

var (
	// ErrPropagationCycle reports a dependency whose target is already being
	// propagated in the current pass. The edge is not applied.
	ErrPropagationCycle = errors.New("tracker: propagation cycle")
	// ErrMaxDepth reports a dependency chain longer than the configured
	// maximum depth. The edge is not applied.
	ErrMaxDepth = errors.New("tracker: propagation depth exceeded")
	// ErrAmbiguousTarget reports a dependency targeting a parameter that
	// another dependency already targets, when ambiguous targets are
	// rejected.
	ErrAmbiguousTarget = errors.New("tracker: ambiguous dependency target")
	// ErrInvalidDependency reports a dependency missing a source or target.
	ErrInvalidDependency = errors.New("tracker: invalid dependency")
)
