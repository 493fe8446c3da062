package visibility

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formengine/pkg/model"
)

func TestEvaluateOperators(t *testing.T) {
	t.Parallel()

	ctx := Context{
		ClientType: "FDF",
		Values: map[string]any{
			"status":  "active",
			"income":  "2500",
			"tags":    []any{"urgent", "new"},
			"notes":   "",
			"address": map[string]any{"country": "AU"},
		},
	}
	cases := []struct {
		name string
		cond model.Conditional
		want bool
	}{
		{"equals", model.Conditional{Field: "status", Operator: model.OperatorEquals, Value: "active"}, true},
		{"not equals", model.Conditional{Field: "status", Operator: model.OperatorNotEquals, Value: "active"}, false},
		{"contains list", model.Conditional{Field: "tags", Operator: model.OperatorContains, Value: "urgent"}, true},
		{"contains string", model.Conditional{Field: "status", Operator: model.OperatorContains, Value: "tiv"}, true},
		{"greater than numeric string", model.Conditional{Field: "income", Operator: model.OperatorGreaterThan, Value: 1000}, true},
		{"less than", model.Conditional{Field: "income", Operator: model.OperatorLessThan, Value: 1000}, false},
		{"less than missing", model.Conditional{Field: "missing", Operator: model.OperatorLessThan, Value: 1000}, false},
		{"is empty", model.Conditional{Field: "notes", Operator: model.OperatorIsEmpty}, true},
		{"is not empty", model.Conditional{Field: "missing", Operator: model.OperatorIsNotEmpty}, false},
		{"client type", model.Conditional{Field: "clientType", Operator: model.OperatorEquals, Value: "FDF"}, true},
		{"client type mismatch", model.Conditional{Field: "clientType", Operator: model.OperatorEquals, Value: "ADHA"}, false},
		{"nested", model.Conditional{Field: "address.country", Operator: model.OperatorEquals, Value: "AU"}, true},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.cond, ctx)
		if err != nil {
			t.Fatalf("%s: Evaluate returned error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestVisibleWithoutConditional(t *testing.T) {
	t.Parallel()

	ok, err := Visible(nil, nil, Context{})
	if err != nil || !ok {
		t.Fatalf("expected nil conditional to be visible, got %v (%v)", ok, err)
	}
}

func TestVisibleUsesCustomEvaluator(t *testing.T) {
	t.Parallel()

	var called bool
	custom := EvaluatorFunc(func(cond model.Conditional, ctx Context) (bool, error) {
		called = true
		return false, nil
	})
	ok, err := Visible(custom, &model.Conditional{Field: "status"}, Context{})
	if err != nil {
		t.Fatalf("Visible returned error: %v", err)
	}
	if ok || !called {
		t.Fatalf("expected custom evaluator to hide the field")
	}
}

func TestEvaluateRejectsUnknownOperator(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(model.Conditional{Field: "status", Operator: "between"}, Context{})
	if !errors.Is(err, ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}
