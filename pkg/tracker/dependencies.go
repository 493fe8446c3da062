package tracker

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/model"
)

// RegisterDependency adds a parameter dependency. Dependencies are applied
// in registration order; when several target the same parameter, the last
// one applied in a pass wins, and registering the second one logs a
// warning (or fails with ErrAmbiguousTarget when configured).
func (t *Tracker) RegisterDependency(dep model.ParameterDependency) (model.ParameterDependency, error) {
	if dep.SourceFormID == "" || dep.SourceParameterID == "" || dep.TargetFormID == "" || dep.TargetParameterID == "" {
		return model.ParameterDependency{}, fmt.Errorf("%w: source and target form and parameter ids are required", ErrInvalidDependency)
	}
	if dep.DependencyType == "" {
		dep.DependencyType = model.ParameterDependencyDirect
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if dep.ID == "" {
		dep.ID = t.newID()
	}
	for _, existing := range t.dependencies {
		if existing.ID == dep.ID {
			return model.ParameterDependency{}, fmt.Errorf("%w: id %q already registered", ErrInvalidDependency, dep.ID)
		}
	}

	target := dep.Target()
	if earlier := t.byTarget[target]; len(earlier) > 0 {
		first := t.dependencies[earlier[0]]
		if t.rejectAmbiguous {
			return model.ParameterDependency{}, fmt.Errorf("%w: %s is already targeted by %s", ErrAmbiguousTarget, target, first.ID)
		}
		t.logger.Warn("tracker: parameter targeted by several dependencies",
			"target", target.String(), "dependency", dep.ID, "earlier", first.ID)
	}

	idx := len(t.dependencies)
	t.dependencies = append(t.dependencies, dep)
	t.bySource[dep.Source()] = append(t.bySource[dep.Source()], idx)
	t.byTarget[target] = append(t.byTarget[target], idx)
	return dep, nil
}

// Dependencies returns every registered dependency in registration order.
func (t *Tracker) Dependencies() []model.ParameterDependency {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.ParameterDependency(nil), t.dependencies...)
}

// DependenciesFrom returns the dependencies sourced at formID.
func (t *Tracker) DependenciesFrom(formID string) []model.ParameterDependency {
	return t.selectDependencies(func(dep model.ParameterDependency) bool {
		return dep.SourceFormID == formID
	})
}

// DependenciesBetween returns the dependencies from sourceFormID into
// targetFormID.
func (t *Tracker) DependenciesBetween(sourceFormID, targetFormID string) []model.ParameterDependency {
	return t.selectDependencies(func(dep model.ParameterDependency) bool {
		return dep.SourceFormID == sourceFormID && dep.TargetFormID == targetFormID
	})
}

func (t *Tracker) selectDependencies(keep func(model.ParameterDependency) bool) []model.ParameterDependency {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.ParameterDependency
	for _, dep := range t.dependencies {
		if keep(dep) {
			out = append(out, dep)
		}
	}
	return out
}
