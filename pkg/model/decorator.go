package model

import (
	"regexp"
	"strings"
)

// Decorator adjusts form metadata before the registry stores it.
type Decorator interface {
	Decorate(*FormMetadata) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormMetadata) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormMetadata) error {
	return fn(form)
}

// Normalize fills the identifiers that providers commonly leave out: a field
// without an id takes its name (and vice versa), a field without a label
// gets one derived from its name, and fields and sections without an order
// keep their declaration position.
var Normalize = DecoratorFunc(func(form *FormMetadata) error {
	if form == nil {
		return nil
	}
	for idx := range form.Fields {
		field := &form.Fields[idx]
		if field.ID == "" {
			field.ID = field.Name
		}
		if field.Name == "" {
			field.Name = field.ID
		}
		if field.Label == "" {
			field.Label = Label(field.Name)
		}
		if field.Order == 0 {
			field.Order = idx + 1
		}
		if field.Type == "" {
			field.Type = FieldTypeText
		}
	}
	for idx := range form.Sections {
		if form.Sections[idx].Order == 0 {
			form.Sections[idx].Order = idx + 1
		}
	}
	return nil
})

var labelSeparators = regexp.MustCompile(`[_\-\s.]+`)

// Label turns a field name such as "monthly_income" or "monthlyIncome" into
// "Monthly Income".
func Label(name string) string {
	var words []string
	for _, chunk := range labelSeparators.Split(name, -1) {
		words = append(words, camelWords(chunk)...)
	}
	for idx, word := range words {
		lower := strings.ToLower(word)
		words[idx] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

func camelWords(chunk string) []string {
	if chunk == "" {
		return nil
	}
	var (
		words []string
		start int
	)
	for i := 1; i < len(chunk); i++ {
		prev, cur := chunk[i-1], chunk[i]
		lowerToUpper := prev >= 'a' && prev <= 'z' && cur >= 'A' && cur <= 'Z'
		letterToDigit := isASCIILetter(prev) && cur >= '0' && cur <= '9'
		if lowerToUpper || letterToDigit {
			words = append(words, chunk[start:i])
			start = i
		}
	}
	return append(words, chunk[start:])
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
