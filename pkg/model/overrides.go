package model

// FormOverride is the client-type specific partial of a FormMetadata.
type FormOverride struct {
	Title             *string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description       *string          `json:"description,omitempty" yaml:"description,omitempty"`
	Sections          []FormSection    `json:"sections,omitempty" yaml:"sections,omitempty"`
	Fields            []FormField      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Dependencies      []FormDependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Permissions       []string         `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Workflow          *WorkflowRef     `json:"workflow,omitempty" yaml:"workflow,omitempty"`
	SubmitEndpoint    *string          `json:"submitEndpoint,omitempty" yaml:"submitEndpoint,omitempty"`
	FetchDataEndpoint *string          `json:"fetchDataEndpoint,omitempty" yaml:"fetchDataEndpoint,omitempty"`
	IsActive          *bool            `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

// FieldOverride is the client-type specific partial of a FormField.
type FieldOverride struct {
	Label                  *string           `json:"label,omitempty" yaml:"label,omitempty"`
	Type                   *FieldType        `json:"type,omitempty" yaml:"type,omitempty"`
	Placeholder            *string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText               *string           `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required               *bool             `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly               *bool             `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Hidden                 *bool             `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	DefaultValue           any               `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Validation             []ValidationRule  `json:"validation,omitempty" yaml:"validation,omitempty"`
	Dependencies           []FieldDependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Options                []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	CalculationFormula     *string           `json:"calculationFormula,omitempty" yaml:"calculationFormula,omitempty"`
	Section                *string           `json:"section,omitempty" yaml:"section,omitempty"`
	Order                  *int              `json:"order,omitempty" yaml:"order,omitempty"`
	Conditional            *Conditional      `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	LocalOnly              *bool             `json:"localOnly,omitempty" yaml:"localOnly,omitempty"`
	NoPropagation          *bool             `json:"noPropagation,omitempty" yaml:"noPropagation,omitempty"`
	ValidationExemptions   []string          `json:"validationExemptions,omitempty" yaml:"validationExemptions,omitempty"`
	TransformOnPropagation *string           `json:"transformOnPropagation,omitempty" yaml:"transformOnPropagation,omitempty"`
	TransformOnReceive     *string           `json:"transformOnReceive,omitempty" yaml:"transformOnReceive,omitempty"`
}

// ResolveForm returns a copy of base with the override for clientType
// applied, followed by each resulting field's own override for clientType.
// The returned metadata shares no slices with base.
func ResolveForm(base FormMetadata, clientType string) FormMetadata {
	out := base
	out.Sections = append([]FormSection(nil), base.Sections...)
	out.Fields = append([]FormField(nil), base.Fields...)
	out.Dependencies = append([]FormDependency(nil), base.Dependencies...)
	out.Permissions = append([]string(nil), base.Permissions...)

	if override, ok := base.ClientTypeOverrides[clientType]; ok {
		applyFormOverride(&out, override)
	}
	for idx := range out.Fields {
		out.Fields[idx] = ResolveField(out.Fields[idx], clientType)
	}
	return out
}

func applyFormOverride(out *FormMetadata, override FormOverride) {
	if override.Title != nil {
		out.Title = *override.Title
	}
	if override.Description != nil {
		out.Description = *override.Description
	}
	if override.Sections != nil {
		out.Sections = append([]FormSection(nil), override.Sections...)
	}
	if override.Fields != nil {
		out.Fields = append([]FormField(nil), override.Fields...)
	}
	if override.Dependencies != nil {
		out.Dependencies = append([]FormDependency(nil), override.Dependencies...)
	}
	if override.Permissions != nil {
		out.Permissions = append([]string(nil), override.Permissions...)
	}
	if override.Workflow != nil {
		workflow := *override.Workflow
		out.Workflow = &workflow
	}
	if override.SubmitEndpoint != nil {
		out.SubmitEndpoint = *override.SubmitEndpoint
	}
	if override.FetchDataEndpoint != nil {
		out.FetchDataEndpoint = *override.FetchDataEndpoint
	}
	if override.IsActive != nil {
		out.IsActive = *override.IsActive
	}
}

// ResolveField returns field with its override for clientType applied.
// Fields without an override for clientType are returned unchanged.
func ResolveField(field FormField, clientType string) FormField {
	override, ok := field.ClientTypeOverrides[clientType]
	if !ok {
		return field
	}
	out := field
	if override.Label != nil {
		out.Label = *override.Label
	}
	if override.Type != nil {
		out.Type = *override.Type
	}
	if override.Placeholder != nil {
		out.Placeholder = *override.Placeholder
	}
	if override.HelpText != nil {
		out.HelpText = *override.HelpText
	}
	if override.Required != nil {
		out.Required = *override.Required
	}
	if override.ReadOnly != nil {
		out.ReadOnly = *override.ReadOnly
	}
	if override.Hidden != nil {
		out.Hidden = *override.Hidden
	}
	if override.DefaultValue != nil {
		out.DefaultValue = override.DefaultValue
	}
	if override.Validation != nil {
		out.Validation = append([]ValidationRule(nil), override.Validation...)
	}
	if override.Dependencies != nil {
		out.Dependencies = append([]FieldDependency(nil), override.Dependencies...)
	}
	if override.Options != nil {
		out.Options = append([]Option(nil), override.Options...)
	}
	if override.CalculationFormula != nil {
		out.CalculationFormula = *override.CalculationFormula
	}
	if override.Section != nil {
		out.Section = *override.Section
	}
	if override.Order != nil {
		out.Order = *override.Order
	}
	if override.Conditional != nil {
		conditional := *override.Conditional
		out.Conditional = &conditional
	}
	if override.LocalOnly != nil {
		out.LocalOnly = *override.LocalOnly
	}
	if override.NoPropagation != nil {
		out.NoPropagation = *override.NoPropagation
	}
	if override.ValidationExemptions != nil {
		out.ValidationExemptions = append([]string(nil), override.ValidationExemptions...)
	}
	if override.TransformOnPropagation != nil {
		out.TransformOnPropagation = *override.TransformOnPropagation
	}
	if override.TransformOnReceive != nil {
		out.TransformOnReceive = *override.TransformOnReceive
	}
	return out
}

// String returns a pointer to value, for building overrides in code.
func String(value string) *string { return &value }

// Bool returns a pointer to value, for building overrides in code.
func Bool(value bool) *bool { return &value }

// Int returns a pointer to value, for building overrides in code.
func Int(value int) *int { return &value }

// Type returns a pointer to value, for building overrides in code.
func Type(value FieldType) *FieldType { return &value }
