package engine

import (
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// FormConfig is the effective configuration of a form for one client type
// and one snapshot of form data.
type FormConfig struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	Version           string                 `json:"version"`
	ClientType        string                 `json:"clientType"`
	Sections          []model.FormSection    `json:"sections,omitempty"`
	Fields            []model.FormField      `json:"fields"`
	Workflow          *model.WorkflowRef     `json:"workflow,omitempty"`
	Dependencies      []model.FormDependency `json:"dependencies,omitempty"`
	SubmitEndpoint    string                 `json:"submitEndpoint,omitempty"`
	FetchDataEndpoint string                 `json:"fetchDataEndpoint,omitempty"`
}

// Field returns the visible field whose id or name matches key.
func (c FormConfig) Field(key string) (model.FormField, bool) {
	for _, field := range c.Fields {
		if field.ID == key || field.Name == key {
			return field, true
		}
	}
	return model.FormField{}, false
}

// GenerateFormConfig resolves the sections and fields of formID that apply
// to clientType and the current data. When data is nil the tracked values of
// the form are used. It reports false when the form is not registered.
func (e *Engine) GenerateFormConfig(formID, clientType, userID string, data map[string]any) (FormConfig, bool) {
	meta, ok := e.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return FormConfig{}, false
	}
	values := e.values(formID, data)
	ctx := visibility.Context{Values: values, ClientType: clientType}

	hiddenSections := make(map[string]bool)
	sections := make([]model.FormSection, 0, len(meta.Sections))
	for _, section := range meta.Sections {
		if !model.ClientTypeAllowed(section.ClientTypes, clientType) || !e.conditionalVisible(formID, section.ID, section.Conditional, ctx) {
			hiddenSections[section.ID] = true
			continue
		}
		sections = append(sections, section)
	}
	slices.SortStableFunc(sections, func(a, b model.FormSection) int { return a.Order - b.Order })

	fields := make([]model.FormField, 0, len(meta.Fields))
	for _, field := range meta.Fields {
		if field.Section != "" && hiddenSections[field.Section] {
			continue
		}
		if !model.ClientTypeAllowed(field.ClientTypes, clientType) {
			continue
		}
		if !e.conditionalVisible(formID, field.Key(), field.Conditional, ctx) {
			continue
		}
		if !e.dependencyVisible(formID, field, values, clientType) {
			continue
		}
		field = model.ResolveField(field, clientType)
		field.Required = e.required(formID, field, values, clientType)
		fields = append(fields, field)
	}
	slices.SortStableFunc(fields, func(a, b model.FormField) int { return a.Order - b.Order })

	return FormConfig{
		ID:                meta.ID,
		Title:             meta.Title,
		Description:       meta.Description,
		Version:           meta.Version,
		ClientType:        clientType,
		Sections:          sections,
		Fields:            fields,
		Workflow:          meta.Workflow,
		Dependencies:      e.resolver.ResolveDependencies(formID, clientType, userID, true),
		SubmitEndpoint:    meta.SubmitEndpoint,
		FetchDataEndpoint: meta.FetchDataEndpoint,
	}, true
}

func (e *Engine) values(formID string, data map[string]any) map[string]any {
	if data == nil {
		return e.tracker.FormValues(formID)
	}
	return maps.Clone(data)
}

func (e *Engine) conditionalVisible(formID, key string, cond *model.Conditional, ctx visibility.Context) bool {
	visible, err := visibility.Visible(e.visibility, cond, ctx)
	if err != nil {
		e.logger.Warn("engine: conditional failed", "form", formID, "target", key, "error", err)
		e.metrics.ExpressionFailed("conditional")
		return false
	}
	return visible
}

// dependencyVisible applies visibility dependencies. A met condition shows
// the field unless the action is "hide", which inverts it.
func (e *Engine) dependencyVisible(formID string, field model.FormField, values map[string]any, clientType string) bool {
	for _, dep := range field.Dependencies {
		if dep.Type != model.FieldDependencyVisibility {
			continue
		}
		holds := e.dependencyHolds(formID, field, dep, values, clientType)
		if isDirective(dep.Action, "hide") {
			holds = !holds
		}
		if !holds {
			return false
		}
	}
	return true
}

// required resolves the effective required flag: the last requirement
// dependency whose condition holds decides, "optional" clearing the flag and
// any other action setting it.
func (e *Engine) required(formID string, field model.FormField, values map[string]any, clientType string) bool {
	required := field.Required
	for _, dep := range field.Dependencies {
		if dep.Type != model.FieldDependencyRequirement {
			continue
		}
		if !e.dependencyHolds(formID, field, dep, values, clientType) {
			continue
		}
		required = !isDirective(dep.Action, "optional", "false")
	}
	return required
}

// dependencyHolds evaluates a field dependency condition with the source
// value bound to `value`. Without a condition the source must be non-empty.
func (e *Engine) dependencyHolds(formID string, field model.FormField, dep model.FieldDependency, values map[string]any, clientType string) bool {
	source := values[dep.SourceField]
	if strings.TrimSpace(dep.Condition) == "" {
		return !expr.IsEmpty(source)
	}
	ok, err := e.evaluator.EvaluateBool(dep.Condition, validation.Vars(values, source, clientType))
	if err != nil {
		e.expressionFailed("field_dependency", formID, field.Key(), dep.Condition, err)
		return false
	}
	return ok
}

func lookup(data map[string]any, field model.FormField) (any, bool) {
	if value, ok := data[field.Key()]; ok {
		return value, true
	}
	if field.Name != "" {
		value, ok := data[field.Name]
		return value, ok
	}
	return nil, false
}
