package engine

import (
	"strings"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// ValidateForm checks data against every field of formID visible for
// clientType and data. With validateDependencies it merges the cross-form
// result for formID and the forms it references, keyed "<formId>.<field>".
func (e *Engine) ValidateForm(formID, clientType string, data map[string]any, validateDependencies bool) validation.Result {
	result := validation.NewResult()
	config, ok := e.GenerateFormConfig(formID, clientType, "", data)
	if !ok {
		result.AddError(formID, "form "+formID+" is not registered")
		return result
	}
	values := e.values(formID, data)

	for _, field := range config.Fields {
		value, _ := lookup(values, field)
		var rules []model.ValidationRule
		if e.rules != nil {
			rules = e.rules.ForField(formID, field.Key())
		}
		result.Merge(e.checker.CheckField(validation.FieldInput{
			FormID:     formID,
			Field:      field,
			Value:      value,
			Data:       values,
			ClientType: clientType,
			Required:   field.Required,
			Rules:      rules,
		}))
		e.checkValidationDependencies(&result, formID, field, values, clientType)
	}

	if validateDependencies {
		result.Merge(e.resolver.ValidateAcrossForms(e.crossFormScope(formID, clientType), clientType, true))
	}

	e.metrics.ValidationCompleted(formID, result.Valid)
	e.logger.Debug("engine: form validated", "form", formID, "client_type", clientType,
		"valid", result.Valid, "errors", len(result.Errors))
	return result
}

// checkValidationDependencies adds an error for every validation dependency
// whose condition holds and whose action expression is falsy.
func (e *Engine) checkValidationDependencies(result *validation.Result, formID string, field model.FormField, values map[string]any, clientType string) {
	for _, dep := range field.Dependencies {
		if dep.Type != model.FieldDependencyValidation || strings.TrimSpace(dep.Action) == "" {
			continue
		}
		if strings.TrimSpace(dep.Condition) != "" && !e.dependencyHolds(formID, field, dep, values, clientType) {
			continue
		}
		value, _ := lookup(values, field)
		vars := validation.Vars(values, value, clientType)
		vars["sourceValue"] = values[dep.SourceField]
		outcome, err := e.evaluator.Evaluate(dep.Action, vars)
		if err != nil {
			e.expressionFailed("field_dependency", formID, field.Key(), dep.Action, err)
			continue
		}
		if !expr.Truthy(outcome) {
			result.AddError(field.Key(), label(field)+" is invalid based on "+dep.SourceField)
		}
	}
}

// crossFormScope lists formID followed by the forms its dependencies
// compare against. Prerequisites and workflow successors only gate, so they
// are left out.
func (e *Engine) crossFormScope(formID, clientType string) []string {
	scope := []string{formID}
	seen := map[string]bool{formID: true}
	for _, dep := range e.resolver.ResolveDependencies(formID, clientType, "", true) {
		switch dep.Type {
		case model.FormDependencyPrerequisite, model.FormDependencyWorkflow, model.FormDependencyFollowup:
			continue
		}
		if seen[dep.FormID] || !e.registry.Has(dep.FormID) {
			continue
		}
		seen[dep.FormID] = true
		scope = append(scope, dep.FormID)
	}
	return scope
}

func label(field model.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}
