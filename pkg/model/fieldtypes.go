package model

import (
	"fmt"
	"strings"
)

// TypeFamily groups field types that share value semantics.
type TypeFamily string

const (
	FamilyNumeric TypeFamily = "numeric"
	FamilyString  TypeFamily = "string"
	FamilyBoolean TypeFamily = "boolean"
	FamilyDate    TypeFamily = "date"
	FamilyList    TypeFamily = "list"
	FamilyOther   TypeFamily = "other"
)

// FamilyOf returns the value family for a field type name. The lookup is
// case-insensitive so imported metadata using "Number" or "STRING" behaves.
func FamilyOf(fieldType FieldType) TypeFamily {
	switch strings.ToLower(strings.TrimSpace(string(fieldType))) {
	case "number", "integer", "int", "float", "decimal", "currency", "money", "percentage":
		return FamilyNumeric
	case "string", "text", "textarea", "email", "phone", "tel", "url", "password", "richtext":
		return FamilyString
	case "boolean", "bool", "checkbox", "toggle", "switch":
		return FamilyBoolean
	case "date", "datetime", "time", "timestamp":
		return FamilyDate
	case "multiselect", "array", "repeater", "tags":
		return FamilyList
	default:
		return FamilyOther
	}
}

// ZeroValue returns the initial value for a field without a default.
func ZeroValue(fieldType FieldType) any {
	switch FamilyOf(fieldType) {
	case FamilyNumeric:
		return float64(0)
	case FamilyBoolean:
		return false
	case FamilyList:
		return []any{}
	case FamilyString:
		return ""
	}
	switch fieldType {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeLookup, FieldTypeHidden:
		return ""
	default:
		// date, file, calculated and unknown types start unset.
		return nil
	}
}

// HasOption reports whether value matches one of the options. Values are
// compared by their string form so JSON numbers match integer option values.
func HasOption(options []Option, value any) bool {
	needle := optionKey(value)
	for _, option := range options {
		if optionKey(option.Value) == needle {
			return true
		}
	}
	return false
}

func optionKey(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
