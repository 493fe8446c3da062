package expr

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

type function struct {
	minArgs int
	// maxArgs is -1 for variadic functions.
	maxArgs int
	call    func(args []any) (any, error)
}

var functions = map[string]function{
	"len":        {1, 1, fnLen},
	"contains":   {2, 2, fnContains},
	"isempty":    {1, 1, func(args []any) (any, error) { return IsEmpty(args[0]), nil }},
	"lower":      {1, 1, func(args []any) (any, error) { return strings.ToLower(toString(args[0])), nil }},
	"upper":      {1, 1, func(args []any) (any, error) { return strings.ToUpper(toString(args[0])), nil }},
	"trim":       {1, 1, func(args []any) (any, error) { return strings.TrimSpace(toString(args[0])), nil }},
	"number":     {1, 1, fnNumber},
	"string":     {1, 1, func(args []any) (any, error) { return toString(args[0]), nil }},
	"bool":       {1, 1, func(args []any) (any, error) { return Truthy(args[0]), nil }},
	"round":      {1, 2, fnRound},
	"floor":      {1, 1, unaryMath(math.Floor)},
	"ceil":       {1, 1, unaryMath(math.Ceil)},
	"abs":        {1, 1, unaryMath(math.Abs)},
	"min":        {1, -1, foldNumbers(math.Min)},
	"max":        {1, -1, foldNumbers(math.Max)},
	"sum":        {0, -1, fnSum},
	"coalesce":   {1, -1, fnCoalesce},
	"startswith": {2, 2, func(args []any) (any, error) { return strings.HasPrefix(toString(args[0]), toString(args[1])), nil }},
	"endswith":   {2, 2, func(args []any) (any, error) { return strings.HasSuffix(toString(args[0]), toString(args[1])), nil }},
	"matches":    {2, 2, fnMatches},
}

var aliases = map[string]string{
	"math.round": "round",
	"math.floor": "floor",
	"math.ceil":  "ceil",
	"math.abs":   "abs",
	"math.min":   "min",
	"math.max":   "max",
	"parsefloat": "number",
	"boolean":    "bool",
}

func lookupFunction(name string) (function, bool) {
	key := strings.ToLower(name)
	if target, ok := aliases[key]; ok {
		key = target
	}
	fn, ok := functions[key]
	return fn, ok
}

// IsEmpty reports whether a form value counts as not provided: nil, blank
// strings and empty collections.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	}
	if list, ok := asList(value); ok {
		return len(list) == 0
	}
	return false
}

func fnLen(args []any) (any, error) {
	switch v := args[0].(type) {
	case nil:
		return float64(0), nil
	case string:
		return float64(len([]rune(v))), nil
	case map[string]any:
		return float64(len(v)), nil
	}
	if list, ok := asList(args[0]); ok {
		return float64(len(list)), nil
	}
	return nil, fmt.Errorf("%w: len of %T", ErrType, args[0])
}

func fnContains(args []any) (any, error) {
	if list, ok := asList(args[0]); ok {
		for _, item := range list {
			if LooseEqual(item, args[1]) {
				return true, nil
			}
		}
		return false, nil
	}
	if args[0] == nil {
		return false, nil
	}
	return strings.Contains(toString(args[0]), toString(args[1])), nil
}

func fnNumber(args []any) (any, error) {
	number, ok := toNumber(args[0])
	if !ok {
		return math.NaN(), nil
	}
	return number, nil
}

// maxRoundDigits bounds round precision to what a float64 can represent.
const maxRoundDigits = 15

func fnRound(args []any) (any, error) {
	value, err := mustNumber(args[0], "round")
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return math.Round(value), nil
	}
	digits, err := cast.ToIntE(args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: round digits %v", ErrType, args[1])
	}
	if digits < -maxRoundDigits || digits > maxRoundDigits {
		return nil, fmt.Errorf("%w: round digits %d out of range [-%d, %d]", ErrType, digits, maxRoundDigits, maxRoundDigits)
	}
	scale := math.Pow(10, float64(digits))
	return math.Round(value*scale) / scale, nil
}

func unaryMath(op func(float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		value, err := mustNumber(args[0], "math")
		if err != nil {
			return nil, err
		}
		return op(value), nil
	}
}

func numbers(args []any) ([]float64, error) {
	if len(args) == 1 {
		if list, ok := asList(args[0]); ok {
			args = list
		}
	}
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		value, err := mustNumber(arg, "aggregate")
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func foldNumbers(op func(a, b float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		values, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, nil
		}
		acc := values[0]
		for _, value := range values[1:] {
			acc = op(acc, value)
		}
		return acc, nil
	}
}

func fnSum(args []any) (any, error) {
	values, err := numbers(args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	return total, nil
}

func fnCoalesce(args []any) (any, error) {
	for _, arg := range args {
		if !IsEmpty(arg) {
			return arg, nil
		}
	}
	return nil, nil
}

var patternCache sync.Map

func fnMatches(args []any) (any, error) {
	pattern := toString(args[1])
	cached, ok := patternCache.Load(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q", ErrType, pattern)
		}
		cached, _ = patternCache.LoadOrStore(pattern, compiled)
	}
	return cached.(*regexp.Regexp).MatchString(toString(args[0])), nil
}
