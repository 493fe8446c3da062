package model

// RuleType enumerates the declarative validation rule kinds.
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleMin       RuleType = "min"
	RuleMax       RuleType = "max"
	RuleMinLength RuleType = "minLength"
	RuleMaxLength RuleType = "maxLength"
	RulePattern   RuleType = "pattern"
	RuleEmail     RuleType = "email"
	RuleURL       RuleType = "url"
	RuleCustom    RuleType = "custom"
)

// Severity partitions validation issues.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationRule is a single constraint on a field. Bounds and patterns live
// in Params under "value" (min/max/minLength/maxLength) or "pattern".
// CustomValidationFn is a boolean expression with the field value bound to
// `value` and the form values bound by field name. When DependentField is
// set, the rule only applies while DependentCondition holds for that field's
// value.
type ValidationRule struct {
	ID                 string         `json:"id,omitempty" yaml:"id,omitempty"`
	FormID             string         `json:"formId,omitempty" yaml:"formId,omitempty"`
	FieldID            string         `json:"fieldId,omitempty" yaml:"fieldId,omitempty"`
	Type               RuleType       `json:"type" yaml:"type"`
	Severity           Severity       `json:"severity,omitempty" yaml:"severity,omitempty"`
	Message            string         `json:"message,omitempty" yaml:"message,omitempty"`
	ClientTypes        []string       `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	Params             map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	CustomValidationFn string         `json:"customValidationFn,omitempty" yaml:"customValidationFn,omitempty"`
	DependentField     string         `json:"dependentField,omitempty" yaml:"dependentField,omitempty"`
	DependentCondition string         `json:"dependentCondition,omitempty" yaml:"dependentCondition,omitempty"`
	IsActive           *bool          `json:"isActive,omitempty" yaml:"isActive,omitempty"`
	Version            int            `json:"version,omitempty" yaml:"version,omitempty"`
}

// Active reports whether the rule is enabled. Rules default to active.
func (r ValidationRule) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

// EffectiveSeverity defaults the severity to error.
func (r ValidationRule) EffectiveSeverity() Severity {
	if r.Severity == "" {
		return SeverityError
	}
	return r.Severity
}

// Param returns a rule parameter.
func (r ValidationRule) Param(key string) (any, bool) {
	if r.Params == nil {
		return nil, false
	}
	value, ok := r.Params[key]
	return value, ok
}
