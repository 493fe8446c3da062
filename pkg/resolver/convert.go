package resolver

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/goliatone/go-formengine/pkg/model"
)

// ConvertValueBetweenTypes coerces value from a field of sourceType into a
// field of targetType. Numeric targets parse numbers, string targets
// format, boolean targets accept true/1/yes, date targets parse dates and
// list targets wrap scalars. Values that cannot be coerced, and targets of
// unknown type, pass through unchanged.
func ConvertValueBetweenTypes(value any, sourceType, targetType model.FieldType) any {
	if strings.EqualFold(string(sourceType), string(targetType)) {
		return value
	}
	switch model.FamilyOf(targetType) {
	case model.FamilyNumeric:
		return toNumber(value)
	case model.FamilyString:
		return toText(value)
	case model.FamilyBoolean:
		return toBool(value)
	case model.FamilyDate:
		return toDate(value)
	case model.FamilyList:
		return toList(value)
	default:
		return value
	}
}

func toNumber(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		number, err := cast.ToFloat64E(trimmed)
		if err != nil {
			return value
		}
		return number
	case time.Time:
		return value
	}
	number, err := cast.ToFloat64E(value)
	if err != nil {
		return value
	}
	return number
}

func toText(value any) any {
	switch typed := value.(type) {
	case nil:
		return ""
	case time.Time:
		return typed.Format(time.RFC3339)
	case float64:
		return cast.ToString(typed)
	}
	text, err := cast.ToStringE(value)
	if err != nil {
		return value
	}
	return text
}

func toBool(value any) any {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "1", "yes", "y", "on":
			return true
		default:
			return false
		}
	}
	flag, err := cast.ToBoolE(value)
	if err != nil {
		return value
	}
	return flag
}

func toDate(value any) any {
	if value == nil {
		return nil
	}
	if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
		return nil
	}
	date, err := cast.ToTimeE(value)
	if err != nil {
		return value
	}
	return date
}

func toList(value any) any {
	if value == nil {
		return []any{}
	}
	if list, err := cast.ToSliceE(value); err == nil {
		return list
	}
	return []any{value}
}
