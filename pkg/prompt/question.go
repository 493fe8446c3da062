package prompt

import (
	"github.com/spf13/cast"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
)

// Question is a form field prepared for a Driver.
type Question struct {
	Key     string
	Kind    Kind
	Message string
	Help    string
	// Default prefills text answers.
	Default string
	// Checked is the default of a confirm question.
	Checked bool
	Options []string
	// Selected holds the default indices into Options.
	Selected []int
	// Validate checks a typed answer; nil accepts anything.
	Validate func(string) error
}

// NewQuestion describes field for a driver, with current (or the field
// default) as the suggested answer. Required fields are marked with " *".
func NewQuestion(field model.FormField, current any) Question {
	q := Question{
		Key:     field.Key(),
		Kind:    KindOf(field),
		Message: field.Label,
		Help:    field.HelpText,
	}
	if q.Message == "" {
		q.Message = model.Label(field.Name)
	}
	if field.Required {
		q.Message += " *"
	}
	if current == nil {
		current = field.DefaultValue
	}

	switch q.Kind {
	case KindConfirm:
		q.Checked = cast.ToBool(current)
	case KindSelect:
		q.Options = optionLabels(field.Options)
		if idx := optionIndex(field.Options, current); idx >= 0 {
			q.Selected = []int{idx}
		}
	case KindMultiSelect:
		q.Options = optionLabels(field.Options)
		for _, item := range cast.ToSlice(current) {
			if idx := optionIndex(field.Options, item); idx >= 0 {
				q.Selected = append(q.Selected, idx)
			}
		}
	case KindInput:
		q.Validate = validator(field)
		fallthrough
	case KindTextArea:
		if !expr.IsEmpty(current) {
			q.Default = cast.ToString(current)
		}
	}
	return q
}
