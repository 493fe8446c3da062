package resolver

import (
	"errors"
	"reflect"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/tracker"
)

// PropagateData copies data from sourceFormID into targetFormID and returns
// the target parameters written.
//
// Explicit parameter dependencies between the two forms are replayed first,
// followed by the field mappings the target form declares on the source.
// Every other set source field is then copied into the same-named target
// field, skipping fields flagged noPropagation on either side, derived
// target fields and the completion id. Name-matched values pass through the
// source transformOnPropagation hook, type coercion and the target
// transformOnReceive hook; values equal to the target's current value are
// not rewritten.
func (r *Resolver) PropagateData(sourceFormID, targetFormID, clientType, userID string) ([]model.ParameterRef, error) {
	source, ok := r.registry.ClientSpecificMetadata(sourceFormID, clientType)
	if !ok {
		r.logger.Warn("resolver: propagation source not registered", "form", sourceFormID)
		return nil, nil
	}
	target, ok := r.registry.ClientSpecificMetadata(targetFormID, clientType)
	if !ok {
		r.logger.Warn("resolver: propagation target not registered", "form", targetFormID)
		return nil, nil
	}

	var (
		written []model.ParameterRef
		errs    []error
		mapped  = make(map[string]bool)
	)

	for _, dep := range r.tracker.DependenciesBetween(sourceFormID, targetFormID) {
		mapped[dep.SourceParameterID] = true
		applied, err := r.tracker.Propagate(dep, clientType, userID)
		if err != nil {
			errs = append(errs, err)
		}
		if applied {
			written = append(written, dep.Target())
		}
	}

	sourceValues := r.tracker.FormValues(sourceFormID)
	for _, mapping := range r.fieldMappings(targetFormID, sourceFormID, clientType) {
		mapped[mapping.SourceField] = true
		value, set := sourceValues[mapping.SourceField]
		if !set {
			continue
		}
		if mapping.Transformation != "" {
			transformed, err := r.evaluator.Evaluate(mapping.Transformation, hookVars(value, clientType, userID))
			if err != nil {
				r.hookFailed(targetFormID, mapping.TargetField, mapping.Transformation, err)
				continue
			}
			value = transformed
		}
		ref, err := r.write(sourceFormID, mapping.SourceField, targetFormID, mapping.TargetField, value, clientType, userID)
		if err != nil {
			errs = append(errs, err)
		}
		if ref != nil {
			written = append(written, *ref)
		}
	}

	for _, field := range source.Fields {
		key := field.Key()
		if mapped[key] || mapped[field.Name] || key == completionParameter || field.NoPropagation {
			continue
		}
		value, set := sourceValues[key]
		if !set {
			continue
		}
		destination, ok := fieldByName(target, field.Name)
		if !ok || destination.NoPropagation || destination.IsDerived() || destination.Key() == completionParameter {
			if ok {
				r.metrics.PropagationSkipped("no_propagation")
			}
			continue
		}

		if field.TransformOnPropagation != "" {
			transformed, err := r.evaluator.Evaluate(field.TransformOnPropagation, hookVars(value, clientType, userID))
			if err != nil {
				r.hookFailed(sourceFormID, key, field.TransformOnPropagation, err)
				continue
			}
			value = transformed
		}
		value = ConvertValueBetweenTypes(value, field.Type, destination.Type)
		if destination.TransformOnReceive != "" {
			transformed, err := r.evaluator.Evaluate(destination.TransformOnReceive, hookVars(value, clientType, userID))
			if err != nil {
				r.hookFailed(targetFormID, destination.Key(), destination.TransformOnReceive, err)
				continue
			}
			value = transformed
		}

		ref, err := r.write(sourceFormID, key, targetFormID, destination.Key(), value, clientType, userID)
		if err != nil {
			errs = append(errs, err)
		}
		if ref != nil {
			written = append(written, *ref)
		}
	}
	return written, errors.Join(errs...)
}

// fieldMappings returns the mappings ownerFormID declares on otherFormID.
func (r *Resolver) fieldMappings(ownerFormID, otherFormID, clientType string) []model.FieldMapping {
	var out []model.FieldMapping
	for _, dep := range r.ResolveDependencies(ownerFormID, clientType, "", true) {
		if dep.FormID == otherFormID {
			out = append(out, dep.FieldMappings...)
		}
	}
	return out
}

func (r *Resolver) write(sourceFormID, sourceField, targetFormID, targetField string, value any, clientType, userID string) (*model.ParameterRef, error) {
	ref := model.ParameterRef{FormID: targetFormID, ParameterID: targetField}
	if current, ok := r.tracker.GetParameterValue(targetFormID, targetField); ok && reflect.DeepEqual(current, value) {
		r.metrics.PropagationSkipped("unchanged")
		return nil, nil
	}
	origin := model.ParameterRef{FormID: sourceFormID, ParameterID: sourceField}
	err := r.tracker.Apply(tracker.Change{
		FormID:      targetFormID,
		ParameterID: targetField,
		Value:       value,
		ClientType:  clientType,
		UserID:      userID,
		EventType:   model.EventPropagation,
		Source:      &origin,
	})
	r.metrics.PropagationApplied("field_mapping")
	return &ref, err
}

func (r *Resolver) hookFailed(formID, field, expression string, err error) {
	r.logger.Warn("resolver: propagation transform failed",
		"form", formID, "field", field, "expression", expression, "error", err)
	r.metrics.ExpressionFailed("transformation")
}

func hookVars(value any, clientType, userID string) map[string]any {
	return map[string]any{
		"value":       value,
		"sourceValue": value,
		"clientType":  clientType,
		"userId":      userID,
	}
}

func fieldByName(meta model.FormMetadata, name string) (model.FormField, bool) {
	for _, field := range meta.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return model.FormField{}, false
}

// NotifyDependentForms propagates sourceFormID's data into every form that
// declares an applicable dependency on it, then into the targets of
// workflow parameter dependencies rooted at it whose condition holds.
// Cached results for the source form are invalidated.
func (r *Resolver) NotifyDependentForms(sourceFormID, clientType, userID string) error {
	var errs []error
	seen := make(map[string]bool)
	propagate := func(targetFormID string) {
		if seen[targetFormID] || targetFormID == sourceFormID {
			return
		}
		seen[targetFormID] = true
		if _, err := r.PropagateData(sourceFormID, targetFormID, clientType, userID); err != nil {
			errs = append(errs, err)
		}
	}

	for _, dependent := range r.dependents(sourceFormID, clientType) {
		for _, dep := range r.ResolveDependencies(dependent, clientType, userID, false) {
			if dep.FormID == sourceFormID {
				propagate(dependent)
				break
			}
		}
	}
	r.InvalidateForm(sourceFormID)

	values := r.tracker.FormValues(sourceFormID)
	for _, dep := range r.tracker.DependenciesFrom(sourceFormID) {
		if dep.DependencyType != model.ParameterDependencyWorkflow || seen[dep.TargetFormID] {
			continue
		}
		if !model.ClientTypeAllowed(dep.ClientTypes, clientType) {
			continue
		}
		if dep.Condition != "" {
			vars := make(map[string]any, len(values)+4)
			for key, value := range values {
				vars[key] = value
			}
			vars["sourceValue"] = values[dep.SourceParameterID]
			vars["value"] = values[dep.SourceParameterID]
			vars["clientType"] = clientType
			vars["userId"] = userID
			ok, err := r.evaluator.EvaluateBool(dep.Condition, vars)
			if err != nil {
				r.logger.Warn("resolver: workflow condition failed",
					"form", sourceFormID, "field", dep.SourceParameterID, "expression", dep.Condition, "error", err)
				r.metrics.ExpressionFailed("condition")
				continue
			}
			if !ok {
				continue
			}
		}
		propagate(dep.TargetFormID)
	}
	return errors.Join(errs...)
}

// dependents lists forms with a declared or registered dependency on
// formID under clientType, in registration order.
func (r *Resolver) dependents(formID, clientType string) []string {
	out := r.registry.Dependents(formID, clientType)
	seen := make(map[string]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.registry.IDs() {
		if seen[id] {
			continue
		}
		for _, dep := range r.formDeps[id] {
			if dep.FormID == formID {
				out = append(out, id)
				seen[id] = true
				break
			}
		}
	}
	return out
}
