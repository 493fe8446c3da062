// Package tracker holds the live parameter values of a session and
// propagates every write through the registered parameter dependencies.
//
// A propagation pass follows dependencies depth-first in registration
// order. A dependency is skipped when its client types exclude the active
// client type, when its condition is falsy, or when its condition or
// transformation fails to evaluate. A dependency whose target is already
// being propagated higher up the same pass is a cycle: it is not applied and
// ErrPropagationCycle is returned alongside the completed pass. Two paths
// into the same target (a diamond) are not a cycle.
//
// Each write appends one audit entry. The entry of the triggering write
// lists every parameter the pass wrote below it.
package tracker
