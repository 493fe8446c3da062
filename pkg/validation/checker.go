package validation

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Option configures a Checker.
type Option func(*Checker)

// WithEvaluator sets the expression evaluator used for custom and dependent
// rules.
func WithEvaluator(evaluator *expr.Evaluator) Option {
	return func(c *Checker) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithLogger sets the logger used to report failing rule expressions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Checker applies required, type-shape and declarative rule checks to field
// values.
type Checker struct {
	evaluator *expr.Evaluator
	logger    *slog.Logger
	patterns  sync.Map
}

// New constructs a Checker.
func New(options ...Option) *Checker {
	c := &Checker{
		evaluator: expr.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FieldInput is everything needed to validate one field value.
type FieldInput struct {
	FormID     string
	Field      model.FormField
	Value      any
	Data       map[string]any
	ClientType string
	// Required is the effective required flag, which callers may have
	// resolved from requirement dependencies.
	Required bool
	// Rules are checked after the field's own Validation rules.
	Rules []model.ValidationRule
}

// CheckField runs the required check, the type-shape check and every
// applicable rule. Empty optional values skip the remaining checks.
func (c *Checker) CheckField(in FieldInput) Result {
	result := NewResult()
	fieldID := in.Field.Key()
	label := fieldLabel(in.Field)

	if expr.IsEmpty(in.Value) {
		if in.Required {
			result.AddError(fieldID, label+" is required")
		}
		return result
	}

	if message, ok := CheckType(in.Field, in.Value); !ok {
		result.AddError(fieldID, message)
		return result
	}

	rules := make([]model.ValidationRule, 0, len(in.Field.Validation)+len(in.Rules))
	rules = append(rules, in.Field.Validation...)
	rules = append(rules, in.Rules...)
	for _, rule := range rules {
		if !c.applies(rule, in) {
			continue
		}
		if message, ok := c.CheckRule(rule, in); !ok {
			result.Add(Issue{
				FieldID:  fieldID,
				Message:  message,
				Severity: rule.EffectiveSeverity(),
				RuleID:   rule.ID,
			})
		}
	}
	return result
}

func (c *Checker) applies(rule model.ValidationRule, in FieldInput) bool {
	if !rule.Active() || !model.ClientTypeAllowed(rule.ClientTypes, in.ClientType) {
		return false
	}
	if rule.DependentField == "" {
		return true
	}
	dependent := in.Data[rule.DependentField]
	if strings.TrimSpace(rule.DependentCondition) == "" {
		return !expr.IsEmpty(dependent)
	}
	ok, err := c.evaluator.EvaluateBool(rule.DependentCondition, Vars(in.Data, dependent, in.ClientType))
	if err != nil {
		c.logger.Warn("validation: dependent condition failed",
			"form", in.FormID, "field", in.Field.Key(), "expression", rule.DependentCondition, "error", err)
		return false
	}
	return ok
}

// CheckRule applies a single rule to a non-empty value and returns the
// failure message when the value does not satisfy it.
func (c *Checker) CheckRule(rule model.ValidationRule, in FieldInput) (string, bool) {
	label := fieldLabel(in.Field)
	message := func(fallback string) string {
		if rule.Message != "" {
			return rule.Message
		}
		return fallback
	}

	switch rule.Type {
	case model.RuleRequired:
		if expr.IsEmpty(in.Value) {
			return message(label + " is required"), false
		}
	case model.RuleMin, model.RuleMax:
		bound, ok := numberParam(rule)
		if !ok {
			return "", true
		}
		value, ok := expr.ToNumber(in.Value)
		if !ok {
			return message(label + " must be a number"), false
		}
		if rule.Type == model.RuleMin && value < bound {
			return message(fmt.Sprintf("%s must be at least %v", label, bound)), false
		}
		if rule.Type == model.RuleMax && value > bound {
			return message(fmt.Sprintf("%s must be at most %v", label, bound)), false
		}
	case model.RuleMinLength, model.RuleMaxLength:
		bound, ok := numberParam(rule)
		if !ok {
			return "", true
		}
		length := float64(valueLength(in.Value))
		if rule.Type == model.RuleMinLength && length < bound {
			return message(fmt.Sprintf("%s must be at least %v characters", label, bound)), false
		}
		if rule.Type == model.RuleMaxLength && length > bound {
			return message(fmt.Sprintf("%s must be at most %v characters", label, bound)), false
		}
	case model.RulePattern:
		pattern, ok := patternParam(rule)
		if !ok {
			return "", true
		}
		re, err := c.compile(pattern)
		if err != nil {
			c.logger.Warn("validation: invalid pattern",
				"form", in.FormID, "field", in.Field.Key(), "expression", pattern, "error", err)
			return "", true
		}
		if !re.MatchString(fmt.Sprint(in.Value)) {
			return message(label + " has an invalid format"), false
		}
	case model.RuleEmail:
		if !IsEmail(fmt.Sprint(in.Value)) {
			return message(label + " must be a valid email address"), false
		}
	case model.RuleURL:
		if !IsURL(fmt.Sprint(in.Value)) {
			return message(label + " must be a valid URL"), false
		}
	case model.RuleCustom:
		if strings.TrimSpace(rule.CustomValidationFn) == "" {
			return "", true
		}
		ok, err := c.evaluator.EvaluateBool(rule.CustomValidationFn, Vars(in.Data, in.Value, in.ClientType))
		if err != nil {
			c.logger.Warn("validation: custom rule failed",
				"form", in.FormID, "field", in.Field.Key(), "expression", rule.CustomValidationFn, "error", err)
			return "", true
		}
		if !ok {
			return message(label + " is invalid"), false
		}
	}
	return "", true
}

func (c *Checker) compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := c.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.patterns.Store(pattern, re)
	return re, nil
}

// CheckType verifies that value has the shape the field type expects:
// numeric, date and boolean families must parse, and option-backed fields
// must hold one of their options.
func CheckType(field model.FormField, value any) (string, bool) {
	label := fieldLabel(field)
	switch model.FamilyOf(field.Type) {
	case model.FamilyNumeric:
		if _, ok := expr.ToNumber(value); !ok {
			return label + " must be a number", false
		}
	case model.FamilyDate:
		if _, err := cast.ToTimeE(value); err != nil {
			return label + " must be a valid date", false
		}
	case model.FamilyBoolean:
		if _, err := cast.ToBoolE(value); err != nil {
			return label + " must be true or false", false
		}
	}

	switch field.Type {
	case model.FieldTypeEmail:
		if !IsEmail(fmt.Sprint(value)) {
			return label + " must be a valid email address", false
		}
	case model.FieldTypeURL:
		if !IsURL(fmt.Sprint(value)) {
			return label + " must be a valid URL", false
		}
	case model.FieldTypeSelect, model.FieldTypeRadio:
		if len(field.Options) > 0 && !model.HasOption(field.Options, value) {
			return label + " is not a valid option", false
		}
	case model.FieldTypeMultiSelect:
		if len(field.Options) == 0 {
			break
		}
		items, err := cast.ToSliceE(value)
		if err != nil {
			return label + " must be a list", false
		}
		for _, item := range items {
			if !model.HasOption(field.Options, item) {
				return fmt.Sprintf("%s contains an invalid option %v", label, item), false
			}
		}
	}
	return "", true
}

// IsEmail reports whether value looks like an email address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// IsURL reports whether value is an absolute URL with a host.
func IsURL(value string) bool {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(value))
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// Vars builds the expression variables for rule evaluation: every form value
// by name, plus `value` and `clientType`.
func Vars(data map[string]any, value any, clientType string) map[string]any {
	vars := make(map[string]any, len(data)+2)
	for key, item := range data {
		vars[key] = item
	}
	vars["value"] = value
	vars["clientType"] = clientType
	return vars
}

func fieldLabel(field model.FormField) string {
	if field.Label != "" {
		return field.Label
	}
	if field.Name != "" {
		return model.Label(field.Name)
	}
	return field.ID
}

func numberParam(rule model.ValidationRule) (float64, bool) {
	for _, key := range []string{"value", string(rule.Type)} {
		if raw, ok := rule.Param(key); ok {
			if number, ok := expr.ToNumber(raw); ok && raw != nil {
				return number, true
			}
		}
	}
	return 0, false
}

func patternParam(rule model.ValidationRule) (string, bool) {
	for _, key := range []string{"pattern", "value"} {
		if raw, ok := rule.Param(key); ok {
			if pattern := fmt.Sprint(raw); pattern != "" {
				return pattern, true
			}
		}
	}
	return "", false
}

func valueLength(value any) int {
	switch typed := value.(type) {
	case string:
		return utf8.RuneCountInString(typed)
	case []any:
		return len(typed)
	case []string:
		return len(typed)
	}
	return utf8.RuneCountInString(fmt.Sprint(value))
}
