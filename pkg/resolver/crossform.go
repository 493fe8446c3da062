package resolver

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// ValidateAcrossForms checks prerequisites for every form in formIDs and
// compares same-named fields along the declared dependencies between listed
// forms. Mismatches are keyed "<formId>.<field>" on the dependent form.
// Results are cached per client type and form list until one of the forms
// changes or the cache TTL passes.
func (r *Resolver) ValidateAcrossForms(formIDs []string, clientType string, useCache bool) validation.Result {
	key := cacheKey(append([]string{clientType}, formIDs...)...)
	now := r.now()
	if useCache {
		if cached, ok := r.validationCache.get(key, now, r.cacheTTL()); ok {
			r.metrics.CacheLookup("validation", true)
			return cloneResult(cached)
		}
		r.metrics.CacheLookup("validation", false)
	}

	result := validation.NewResult()
	compared := make(map[[2]string]bool)
	inputs := slices.Clone(formIDs)
	for _, formID := range formIDs {
		prerequisites := r.CheckPrerequisites(formID, clientType)
		for _, missing := range prerequisites.MissingPrerequisites {
			result.AddError(formID, missing)
		}

		for _, dep := range r.ResolveDependencies(formID, clientType, "", useCache) {
			if !slices.Contains(inputs, dep.FormID) {
				inputs = append(inputs, dep.FormID)
			}
			if dep.FormID == formID || !slices.Contains(formIDs, dep.FormID) {
				continue
			}
			pair := [2]string{formID, dep.FormID}
			if formID > dep.FormID {
				pair = [2]string{dep.FormID, formID}
			}
			if compared[pair] {
				continue
			}
			compared[pair] = true
			r.compareForms(&result, formID, dep.FormID, clientType)
		}
	}

	r.metrics.ValidationCompleted(cacheKey(formIDs...), result.Valid)
	// Prerequisite forms are inputs too: their completion changes the result.
	r.validationCache.put(key, result, now, inputs...)
	return cloneResult(result)
}

func (r *Resolver) compareForms(result *validation.Result, formID, otherID, clientType string) {
	meta, ok := r.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return
	}
	other, ok := r.registry.ClientSpecificMetadata(otherID, clientType)
	if !ok {
		return
	}
	values := r.tracker.FormValues(formID)
	otherValues := r.tracker.FormValues(otherID)

	for _, field := range meta.Fields {
		counterpart, ok := fieldByName(other, field.Name)
		if !ok || !crossChecked(field, otherID) || !crossChecked(counterpart, formID) {
			continue
		}
		value, set := values[field.Key()]
		otherValue, otherSet := otherValues[counterpart.Key()]
		if !set || !otherSet || expr.LooseEqual(value, otherValue) {
			continue
		}
		result.AddError(formID+"."+field.Key(), fmt.Sprintf(
			"%s does not match %s in %s", label(field), label(counterpart), otherID))
	}
}

// crossChecked reports whether field takes part in cross-form checks
// against otherFormID.
func crossChecked(field model.FormField, otherFormID string) bool {
	if field.IsDerived() || field.LocalOnly || field.Key() == completionParameter {
		return false
	}
	return !slices.Contains(field.ValidationExemptions, otherFormID)
}

func label(field model.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

// ValidateField checks a single value against the field's required flag,
// its type and its rules, plus any rules registered at runtime for the
// field. Unknown forms or fields are reported as invalid.
func (r *Resolver) ValidateField(formID, fieldName string, value any, clientType string) validation.Result {
	result := validation.NewResult()
	meta, ok := r.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		result.AddError(fieldName, fmt.Sprintf("form %q is not registered", formID))
		return result
	}
	field, ok := meta.Field(fieldName)
	if !ok {
		result.AddError(fieldName, fmt.Sprintf("field %q is not defined in form %q", fieldName, formID))
		return result
	}

	var rules []model.ValidationRule
	if r.rules != nil {
		rules = r.rules.ForField(formID, field.Key())
	}
	return r.checker.CheckField(validation.FieldInput{
		FormID:     formID,
		Field:      field,
		Value:      value,
		Data:       r.tracker.FormValues(formID),
		ClientType: clientType,
		Required:   field.Required,
		Rules:      rules,
	})
}

func cloneResult(in validation.Result) validation.Result {
	return validation.Result{
		Valid:    in.Valid,
		Errors:   slices.Clone(in.Errors),
		Warnings: slices.Clone(in.Warnings),
		Infos:    slices.Clone(in.Infos),
	}
}
