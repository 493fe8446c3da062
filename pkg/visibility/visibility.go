package visibility

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
)

// ClientTypeField is the synthetic field name that compares against the
// active client type instead of the form data.
const ClientTypeField = "clientType"

// ErrUnknownOperator reports a conditional operator outside the supported set.
var ErrUnknownOperator = errors.New("visibility: unknown operator")

// Evaluator determines whether a section or field should be shown for the
// current form data.
type Evaluator interface {
	Eval(cond model.Conditional, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current form
// data keyed by field name; ClientType is the active client variant.
type Context struct {
	Values     map[string]any
	ClientType string
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(cond model.Conditional, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(cond model.Conditional, ctx Context) (bool, error) {
	return fn(cond, ctx)
}

// Default evaluates conditionals with the built-in operator set.
var Default Evaluator = EvaluatorFunc(Evaluate)

// Visible evaluates an optional conditional. A nil conditional is always
// visible.
func Visible(evaluator Evaluator, cond *model.Conditional, ctx Context) (bool, error) {
	if cond == nil || strings.TrimSpace(cond.Field) == "" {
		return true, nil
	}
	if evaluator == nil {
		evaluator = Default
	}
	return evaluator.Eval(*cond, ctx)
}

// Evaluate applies the conditional operator to the referenced value.
func Evaluate(cond model.Conditional, ctx Context) (bool, error) {
	actual := lookup(cond.Field, ctx)
	switch cond.Operator {
	case model.OperatorEquals, "":
		return expr.LooseEqual(actual, cond.Value), nil
	case model.OperatorNotEquals:
		return !expr.LooseEqual(actual, cond.Value), nil
	case model.OperatorContains:
		return contains(actual, cond.Value), nil
	case model.OperatorGreaterThan:
		l, r, ok := numbers(actual, cond.Value)
		return ok && l > r, nil
	case model.OperatorLessThan:
		l, r, ok := numbers(actual, cond.Value)
		return ok && l < r, nil
	case model.OperatorIsEmpty:
		return expr.IsEmpty(actual), nil
	case model.OperatorIsNotEmpty:
		return !expr.IsEmpty(actual), nil
	default:
		return false, fmt.Errorf("%w %q on field %q", ErrUnknownOperator, cond.Operator, cond.Field)
	}
}

func lookup(field string, ctx Context) any {
	if field == ClientTypeField {
		return ctx.ClientType
	}
	if value, ok := ctx.Values[field]; ok {
		return value
	}
	// Dotted references walk nested maps.
	parts := strings.Split(field, ".")
	if len(parts) < 2 {
		return nil
	}
	var current any = ctx.Values
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[part]
	}
	return current
}

func contains(actual, needle any) bool {
	switch typed := actual.(type) {
	case nil:
		return false
	case string:
		return strings.Contains(typed, fmt.Sprint(needle))
	case []any:
		for _, item := range typed {
			if expr.LooseEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range typed {
			if expr.LooseEqual(item, needle) {
				return true
			}
		}
		return false
	}
	return false
}

func numbers(left, right any) (float64, float64, bool) {
	if left == nil || right == nil {
		return 0, 0, false
	}
	l, lok := expr.ToNumber(left)
	r, rok := expr.ToNumber(right)
	return l, r, lok && rok
}
