package metrics

// Recorder receives engine events worth counting. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// ParameterChanged counts one tracked value transition.
	ParameterChanged(formID, eventType string)
	// PropagationApplied counts one dependency edge written during a pass.
	PropagationApplied(dependencyType string)
	// PropagationSkipped counts an edge that was not applied, by reason:
	// client_type, condition, expression, cycle, max_depth, no_propagation,
	// unchanged.
	PropagationSkipped(reason string)
	// ExpressionFailed counts an expression error by the site that
	// evaluated it: condition, transformation, calculation, rule.
	ExpressionFailed(site string)
	// ValidationCompleted counts a form validation by outcome.
	ValidationCompleted(formID string, valid bool)
	// CacheLookup counts resolver cache hits and misses.
	CacheLookup(cache string, hit bool)
}

// Nop discards every event.
type Nop struct{}

func (Nop) ParameterChanged(string, string) {}
func (Nop) PropagationApplied(string) {}
func (Nop) PropagationSkipped(string) {}
func (Nop) ExpressionFailed(string) {}
func (Nop) ValidationCompleted(string, bool) {}
func (Nop) CacheLookup(string, bool) {}

// OrNop returns recorder, or Nop when recorder is nil.
func OrNop(recorder Recorder) Recorder {
	if recorder == nil {
		return Nop{}
	}
	return recorder
}
