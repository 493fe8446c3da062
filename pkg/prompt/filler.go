package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Kind is the prompt used for a field.
type Kind string

const (
	KindInput       Kind = "input"
	KindConfirm     Kind = "confirm"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindTextArea    Kind = "textarea"
	KindSkip        Kind = "skip"
)

// KindOf picks the prompt for a field. Hidden, read-only and derived fields
// are not asked.
func KindOf(field model.FormField) Kind {
	if field.Type == model.FieldTypeHidden || field.ReadOnly || field.IsDerived() {
		return KindSkip
	}
	switch field.Type {
	case model.FieldTypeCheckbox, model.FieldTypeBoolean:
		return KindConfirm
	case model.FieldTypeTextarea:
		return KindTextArea
	case model.FieldTypeSelect, model.FieldTypeRadio:
		if len(field.Options) > 0 {
			return KindSelect
		}
	case model.FieldTypeMultiSelect:
		if len(field.Options) > 0 {
			return KindMultiSelect
		}
	case model.FieldTypeFile, model.FieldTypeRepeater:
		return KindSkip
	}
	return KindInput
}

// Session is the part of the engine a fill loop drives.
type Session interface {
	GenerateFormConfig(formID, clientType, userID string, data map[string]any) (engine.FormConfig, bool)
	ProcessFieldChange(formID, fieldName string, value any, clientType, userID string) error
}

// Option configures a Filler.
type Option func(*Filler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Filler asks for every visible field of a form in order. The form
// configuration is regenerated after each answer, so fields revealed by an
// answer are asked and fields hidden by it are dropped.
type Filler struct {
	driver Driver
	logger *slog.Logger
}

// NewFiller constructs a Filler over driver.
func NewFiller(driver Driver, options ...Option) *Filler {
	f := &Filler{
		driver: driver,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for formID starting from initial values and returns the
// values of the fields still visible at the end.
func (f *Filler) Fill(ctx context.Context, session Session, formID, clientType, userID string, initial map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	asked := make(map[string]bool)

	for {
		config, ok := session.GenerateFormConfig(formID, clientType, userID, values)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
		}
		field, ok := nextField(config, asked)
		if !ok {
			return visibleValues(config, values), nil
		}
		asked[field.Key()] = true

		value, err := f.ask(ctx, field, values[field.Key()])
		if err != nil {
			return nil, err
		}
		values[field.Key()] = value
		if err := session.ProcessFieldChange(formID, field.Key(), value, clientType, userID); err != nil {
			f.logger.Warn("prompt: propagation reported errors", "form", formID, "field", field.Key(), "error", err)
		}
	}
}

func nextField(config engine.FormConfig, asked map[string]bool) (model.FormField, bool) {
	for _, field := range config.Fields {
		if asked[field.Key()] || KindOf(field) == KindSkip {
			continue
		}
		return field, true
	}
	return model.FormField{}, false
}

func visibleValues(config engine.FormConfig, values map[string]any) map[string]any {
	out := make(map[string]any, len(config.Fields))
	for _, field := range config.Fields {
		if value, ok := values[field.Key()]; ok {
			out[field.Key()] = value
		}
	}
	return out
}

func (f *Filler) ask(ctx context.Context, field model.FormField, current any) (any, error) {
	q := NewQuestion(field, current)
	switch q.Kind {
	case KindConfirm:
		return f.driver.Confirm(ctx, q)
	case KindSelect, KindMultiSelect:
		picked, err := f.driver.Choose(ctx, q)
		if err != nil {
			return nil, err
		}
		selected := make([]any, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Options) {
				selected = append(selected, field.Options[idx].Value)
			}
		}
		if q.Kind == KindMultiSelect {
			return selected, nil
		}
		if len(selected) == 0 {
			return nil, nil
		}
		return selected[0], nil
	default:
		answer, err := f.driver.Text(ctx, q)
		if err != nil {
			return nil, err
		}
		if q.Kind == KindTextArea {
			return answer, nil
		}
		return convert(field, answer)
	}
}

// validator checks the shape of a typed answer before it is accepted.
func validator(field model.FormField) func(string) error {
	return func(answer string) error {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			if field.Required {
				return errors.New("a value is required")
			}
			return nil
		}
		value, err := convert(field, answer)
		if err != nil {
			return err
		}
		if message, ok := validation.CheckType(field, value); !ok {
			return errors.New(message)
		}
		return nil
	}
}

// convert turns a typed answer into the value stored for the field. Blank
// answers to non-text fields are stored as nil.
func convert(field model.FormField, answer string) (any, error) {
	answer = strings.TrimSpace(answer)
	family := model.FamilyOf(field.Type)
	if answer == "" {
		if family == model.FamilyString {
			return "", nil
		}
		return nil, nil
	}
	switch family {
	case model.FamilyNumeric:
		if field.Type == model.FieldTypeInteger {
			value, err := cast.ToInt64E(answer)
			if err != nil {
				return nil, fmt.Errorf("%s must be a whole number", answer)
			}
			return value, nil
		}
		value, err := cast.ToFloat64E(answer)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", answer)
		}
		return value, nil
	case model.FamilyBoolean:
		value, err := cast.ToBoolE(answer)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", answer)
		}
		return value, nil
	}
	return answer, nil
}

func optionLabels(options []model.Option) []string {
	labels := make([]string, len(options))
	for idx, option := range options {
		labels[idx] = option.Label
		if labels[idx] == "" {
			labels[idx] = cast.ToString(option.Value)
		}
	}
	return labels
}

func optionIndex(options []model.Option, value any) int {
	if value == nil {
		return -1
	}
	for idx, option := range options {
		if model.HasOption([]model.Option{option}, value) {
			return idx
		}
	}
	return -1
}
