package model

import "time"

// FieldType enumerates the input kinds a form field can take.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
	FieldTypeURL         FieldType = "url"
	FieldTypeNumber      FieldType = "number"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeFloat       FieldType = "float"
	FieldTypeCurrency    FieldType = "currency"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeFile        FieldType = "file"
	FieldTypeCalculated  FieldType = "calculated"
	FieldTypeLookup      FieldType = "lookup"
	FieldTypeRepeater    FieldType = "repeater"
	FieldTypeHidden      FieldType = "hidden"
)

// DataSourceKind identifies where a field's options come from.
type DataSourceKind string

const (
	DataSourceStatic   DataSourceKind = "static"
	DataSourceAPI      DataSourceKind = "api"
	DataSourceFunction DataSourceKind = "function"
)

// DataSource describes how a select/lookup field obtains its options. The
// engine carries it as data; fetching remote options is a presentation
// concern.
type DataSource struct {
	Kind     DataSourceKind `json:"kind" yaml:"kind"`
	Endpoint string         `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Function string         `json:"function,omitempty" yaml:"function,omitempty"`
	ValueKey string         `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`
	LabelKey string         `json:"labelKey,omitempty" yaml:"labelKey,omitempty"`
}

// Option is a selectable value for select, multiselect and radio fields.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// ConditionalOperator enumerates the operators of the simple visibility rule.
type ConditionalOperator string

const (
	OperatorEquals      ConditionalOperator = "equals"
	OperatorNotEquals   ConditionalOperator = "notEquals"
	OperatorContains    ConditionalOperator = "contains"
	OperatorGreaterThan ConditionalOperator = "greaterThan"
	OperatorLessThan    ConditionalOperator = "lessThan"
	OperatorIsEmpty     ConditionalOperator = "isEmpty"
	OperatorIsNotEmpty  ConditionalOperator = "isNotEmpty"
)

// Conditional is the field/operator/value rule attached to sections and
// fields. The synthetic field name "clientType" compares against the active
// client type instead of the form data.
type Conditional struct {
	Field    string              `json:"field" yaml:"field"`
	Operator ConditionalOperator `json:"operator" yaml:"operator"`
	Value    any                 `json:"value,omitempty" yaml:"value,omitempty"`
}

// FieldDependencyType enumerates what a field-level dependency controls.
type FieldDependencyType string

const (
	FieldDependencyVisibility  FieldDependencyType = "visibility"
	FieldDependencyRequirement FieldDependencyType = "requirement"
	FieldDependencyValue       FieldDependencyType = "value"
	FieldDependencyOptions     FieldDependencyType = "options"
	FieldDependencyValidation  FieldDependencyType = "validation"
)

// FieldDependency links a field to another field of the same form. Condition
// is an expression evaluated with the source value bound to `value` and every
// form value bound by field name. Action is an expression or directive
// (`required`, `optional`, `show`, `hide`) depending on Type.
type FieldDependency struct {
	Type        FieldDependencyType `json:"type" yaml:"type"`
	SourceField string              `json:"sourceField" yaml:"sourceField"`
	Condition   string              `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action      string              `json:"action,omitempty" yaml:"action,omitempty"`
}

// FormField is a single input inside a form.
type FormField struct {
	ID                 string               `json:"id" yaml:"id"`
	Name               string               `json:"name" yaml:"name"`
	Label              string               `json:"label" yaml:"label"`
	Type               FieldType            `json:"type" yaml:"type"`
	Placeholder        string               `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText           string               `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required           bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly           bool                 `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Hidden             bool                 `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	DefaultValue       any                  `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Validation         []ValidationRule     `json:"validation,omitempty" yaml:"validation,omitempty"`
	Dependencies       []FieldDependency    `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	DataSource         *DataSource          `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Options            []Option             `json:"options,omitempty" yaml:"options,omitempty"`
	CalculationFormula string               `json:"calculationFormula,omitempty" yaml:"calculationFormula,omitempty"`
	Section            string               `json:"section,omitempty" yaml:"section,omitempty"`
	Order              int                  `json:"order,omitempty" yaml:"order,omitempty"`
	ClientTypes        []string             `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	Conditional        *Conditional         `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Derived            bool                 `json:"derived,omitempty" yaml:"derived,omitempty"`
	LocalOnly          bool                 `json:"localOnly,omitempty" yaml:"localOnly,omitempty"`
	NoPropagation      bool                 `json:"noPropagation,omitempty" yaml:"noPropagation,omitempty"`
	// ValidationExemptions names other forms this field is not compared
	// against during cross-form validation.
	ValidationExemptions []string `json:"validationExemptions,omitempty" yaml:"validationExemptions,omitempty"`
	// TransformOnPropagation runs on the outgoing value when the field is
	// auto-propagated by name; TransformOnReceive runs on incoming values.
	TransformOnPropagation string                   `json:"transformOnPropagation,omitempty" yaml:"transformOnPropagation,omitempty"`
	TransformOnReceive     string                   `json:"transformOnReceive,omitempty" yaml:"transformOnReceive,omitempty"`
	ClientTypeOverrides    map[string]FieldOverride `json:"clientTypeOverrides,omitempty" yaml:"clientTypeOverrides,omitempty"`
}

// IsDerived reports whether the field value is computed rather than entered.
func (f FormField) IsDerived() bool {
	return f.Derived || f.Type == FieldTypeCalculated
}

// Key returns the parameter id the tracker stores the field under.
func (f FormField) Key() string {
	if f.ID != "" {
		return f.ID
	}
	return f.Name
}

// FormSection groups fields.
type FormSection struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int          `json:"order,omitempty" yaml:"order,omitempty"`
	Collapsible bool         `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
	ClientTypes []string     `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// FormDependencyType enumerates how one form relates to another.
type FormDependencyType string

const (
	FormDependencyPrerequisite FormDependencyType = "prerequisite"
	FormDependencyReference    FormDependencyType = "reference"
	FormDependencyFollowup     FormDependencyType = "followup"
	FormDependencyWorkflow     FormDependencyType = "workflow"
	FormDependencyValidation   FormDependencyType = "validation"
	FormDependencyDirect       FormDependencyType = "direct"
	FormDependencyDerived      FormDependencyType = "derived"
)

// FieldMapping copies a source field of the other form into a field of this
// form during propagation, optionally through a transformation expression
// with the source value bound to `sourceValue`.
type FieldMapping struct {
	SourceField    string `json:"sourceField" yaml:"sourceField"`
	TargetField    string `json:"targetField" yaml:"targetField"`
	Transformation string `json:"transformation,omitempty" yaml:"transformation,omitempty"`
}

// FormDependency declares a relationship from the owning form to FormID.
type FormDependency struct {
	FormID        string             `json:"formId" yaml:"formId"`
	Type          FormDependencyType `json:"type" yaml:"type"`
	Required      bool               `json:"required,omitempty" yaml:"required,omitempty"`
	Condition     string             `json:"condition,omitempty" yaml:"condition,omitempty"`
	ClientTypes   []string           `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	FieldMappings []FieldMapping     `json:"fieldMappings,omitempty" yaml:"fieldMappings,omitempty"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
}

// WorkflowRef points at static workflow metadata consumed elsewhere.
type WorkflowRef struct {
	ID   string `json:"id" yaml:"id"`
	Step string `json:"step,omitempty" yaml:"step,omitempty"`
}

// FormMetadata is the declarative description of a form.
type FormMetadata struct {
	ID                  string                  `json:"id" yaml:"id"`
	Title               string                  `json:"title" yaml:"title"`
	Description         string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Version             string                  `json:"version" yaml:"version"`
	Module              string                  `json:"module" yaml:"module"`
	Sections            []FormSection           `json:"sections,omitempty" yaml:"sections,omitempty"`
	Fields              []FormField             `json:"fields" yaml:"fields"`
	Dependencies        []FormDependency        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Permissions         []string                `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Workflow            *WorkflowRef            `json:"workflow,omitempty" yaml:"workflow,omitempty"`
	SubmitEndpoint      string                  `json:"submitEndpoint,omitempty" yaml:"submitEndpoint,omitempty"`
	FetchDataEndpoint   string                  `json:"fetchDataEndpoint,omitempty" yaml:"fetchDataEndpoint,omitempty"`
	ClientTypeOverrides map[string]FormOverride `json:"clientTypeOverrides,omitempty" yaml:"clientTypeOverrides,omitempty"`
	CreatedAt           time.Time               `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt           time.Time               `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	IsActive            bool                    `json:"isActive" yaml:"isActive"`
}

// Field returns the field whose id or name matches key.
func (m FormMetadata) Field(key string) (FormField, bool) {
	for _, field := range m.Fields {
		if field.ID == key {
			return field, true
		}
	}
	for _, field := range m.Fields {
		if field.Name == key {
			return field, true
		}
	}
	return FormField{}, false
}

// FormEntry is the lightweight catalogue summary of a form.
type FormEntry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Module      string   `json:"module" yaml:"module"`
	ClientTypes []string `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Path        string   `json:"path,omitempty" yaml:"path,omitempty"`
}

// AppliesTo reports whether an entry is offered to clientType. Entries
// without client types are offered to every client.
func (e FormEntry) AppliesTo(clientType string) bool {
	return ClientTypeAllowed(e.ClientTypes, clientType)
}

// ClientTypeAllowed reports whether clientType passes a client-type scope.
// An empty scope allows every client type.
func ClientTypeAllowed(scope []string, clientType string) bool {
	if len(scope) == 0 {
		return true
	}
	for _, candidate := range scope {
		if candidate == clientType {
			return true
		}
	}
	return false
}
