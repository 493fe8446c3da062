package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Truthy reports the boolean reading of a value: nil, false, zero, blank
// strings and empty collections are false.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case time.Time:
		return !v.IsZero()
	}
	if number, ok := toNumber(value); ok && isNumberKind(value) {
		return number != 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// LooseEqual compares values the way form rules expect: numbers equal their
// numeric string forms, booleans compare by truthiness of the other side's
// boolean reading, and collections compare deeply.
func LooseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lb, ok := left.(bool); ok {
		rb, err := cast.ToBoolE(right)
		return err == nil && lb == rb
	}
	if rb, ok := right.(bool); ok {
		lb, err := cast.ToBoolE(left)
		return err == nil && lb == rb
	}
	if lt, ok := left.(time.Time); ok {
		if rt, ok := toTime(right); ok {
			return lt.Equal(rt)
		}
		return false
	}
	if rt, ok := right.(time.Time); ok {
		if lt, ok := toTime(left); ok {
			return lt.Equal(rt)
		}
		return false
	}
	if isNumberKind(left) || isNumberKind(right) {
		l, lok := toNumber(left)
		r, rok := toNumber(right)
		if lok && rok && !blankString(left) && !blankString(right) {
			return l == r
		}
		return false
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return ls == rs
		}
	}
	return reflect.DeepEqual(left, right)
}

func strictEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if isNumberKind(left) && isNumberKind(right) {
		l, _ := toNumber(left)
		r, _ := toNumber(right)
		return l == r
	}
	if reflect.TypeOf(left) != reflect.TypeOf(right) {
		return false
	}
	return reflect.DeepEqual(left, right)
}

func compare(left, right any, op string) (int, error) {
	if lt, ok := left.(time.Time); ok {
		rt, ok := toTime(right)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare date with %T using %s", ErrType, right, op)
		}
		return compareTimes(lt, rt), nil
	}
	if rt, ok := right.(time.Time); ok {
		lt, ok := toTime(left)
		if !ok {
			return 0, fmt.Errorf("%w: cannot compare %T with date using %s", ErrType, left, op)
		}
		return compareTimes(lt, rt), nil
	}

	ls, lText := left.(string)
	rs, rText := right.(string)
	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if lText && rText && (!lok || !rok || blankString(left) || blankString(right)) {
		return strings.Compare(ls, rs), nil
	}
	if !lok {
		return 0, fmt.Errorf("%w: %q is not comparable using %s", ErrType, toString(left), op)
	}
	if !rok {
		return 0, fmt.Errorf("%w: %q is not comparable using %s", ErrType, toString(right), op)
	}
	switch {
	case l < r:
		return -1, nil
	case l > r:
		return 1, nil
	default:
		return 0, nil
	}
}

func compareTimes(l, r time.Time) int {
	switch {
	case l.Before(r):
		return -1
	case l.After(r):
		return 1
	default:
		return 0
	}
}

// ToNumber converts a value to float64. nil and blank strings read as zero;
// non-numeric strings report false.
func ToNumber(value any) (float64, bool) {
	return toNumber(value)
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		return parsed, err == nil
	case time.Time, []any, map[string]any:
		return 0, false
	}
	parsed, err := cast.ToFloat64E(value)
	return parsed, err == nil
}

func mustNumber(value any, op string) (float64, error) {
	number, ok := toNumber(value)
	if !ok {
		return 0, fmt.Errorf("%w: cannot use %q as a number with %s", ErrType, toString(value), op)
	}
	return number, nil
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	out, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return out
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := cast.ToTimeE(strings.TrimSpace(v))
		return parsed, err == nil
	}
	return time.Time{}, false
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func isText(value any) bool {
	_, ok := value.(string)
	return ok
}

func blankString(value any) bool {
	text, ok := value.(string)
	return ok && strings.TrimSpace(text) == ""
}

func isNumberKind(value any) bool {
	switch value.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
