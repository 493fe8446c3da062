package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluateArithmeticAndPrecedence(t *testing.T) {
	t.Parallel()

	eval := New()
	markup := 1.15
	cases := []struct {
		expression string
		vars       map[string]any
		want       any
	}{
		{"sourceValue * 2", map[string]any{"sourceValue": 5}, float64(10)},
		{"sourceValue * 1.15", map[string]any{"sourceValue": float64(100)}, 100 * markup},
		{"1 + 2 * 3", nil, float64(7)},
		{"(1 + 2) * 3", nil, float64(9)},
		{"10 % 4", nil, float64(2)},
		{"-price + 3", map[string]any{"price": "2"}, float64(1)},
		{`"total: " + 3`, nil, "total: 3"},
		{"price * quantity", map[string]any{"price": 2.5, "quantity": nil}, float64(0)},
		{"Math.round(amount * 1.5)", map[string]any{"amount": 5}, float64(8)},
		{"round(12.3456, 2)", nil, 12.35},
		{"max(1, 7, 3) - min([4, 2, 9])", nil, float64(5)},
		{"sum(items)", map[string]any{"items": []any{1, 2, 3.5}}, 6.5},
		{"Number(value)", map[string]any{"value": "42"}, float64(42)},
		{`"caf\u00e9 \"x\" \\ it\'s"`, nil, `café "x" \ it's`},
	}
	for _, tc := range cases {
		got, err := eval.Evaluate(tc.expression, tc.vars)
		if err != nil {
			t.Fatalf("Evaluate(%q) returned error: %v", tc.expression, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Evaluate(%q) mismatch (-want +got):\n%s", tc.expression, diff)
		}
	}
}

func TestEvaluateBooleanLogic(t *testing.T) {
	t.Parallel()

	eval := New()
	vars := map[string]any{
		"sourceValue": 50,
		"status":      "active",
		"enabled":     "true",
		"tags":        []any{"urgent", "new"},
		"nested":      map[string]any{"count": 3},
		"cta.title":   "Hello",
	}
	cases := map[string]bool{
		"sourceValue > 100":                       false,
		"sourceValue >= 50 && status == 'active'": true,
		"status != 'active' || sourceValue < 10":  false,
		"!(sourceValue === 50)":                   false,
		"sourceValue == '50'":                     true,
		"sourceValue === '50'":                    false,
		"enabled == true":                         true,
		"contains(tags, 'urgent')":                true,
		"contains(status, 'tiv')":                 true,
		"nested.count == 3":                       true,
		"nested['count'] > 2":                     true,
		"tags.length == 2":                        true,
		"cta.title == 'Hello'":                    true,
		"missing == null":                         true,
		"isEmpty(missing) && !isEmpty(status)":    true,
		"startsWith(lower(status), 'act')":        true,
		"matches(status, '^a.*e$')":               true,
		"len(status) == 6 ? true : false":         true,
	}
	for expression, want := range cases {
		got, err := eval.EvaluateBool(expression, vars)
		if err != nil {
			t.Fatalf("EvaluateBool(%q) returned error: %v", expression, err)
		}
		if got != want {
			t.Fatalf("EvaluateBool(%q) = %v, want %v", expression, got, want)
		}
	}
}

func TestLogicalOperatorsReturnOperands(t *testing.T) {
	t.Parallel()

	got, err := New().Evaluate("discount || 0", map[string]any{"discount": ""})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if got != float64(0) {
		t.Fatalf("expected fallback operand 0, got %#v", got)
	}

	got, err = New().Evaluate("name && upper(name)", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if got != "ADA" {
		t.Fatalf("expected ADA, got %#v", got)
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	eval := New()
	cases := []struct {
		expression string
		want       error
	}{
		{"", ErrSyntax},
		{"a = 1", ErrSyntax},
		{"(a + 1", ErrSyntax},
		{"'open", ErrSyntax},
		{"a &", ErrSyntax},
		{"alert('x')", ErrUnknownFunction},
		{"window.alert('x')", ErrUnknownFunction},
		{"1 / 0", ErrDivisionByZero},
		{"5 % zero", ErrDivisionByZero},
		{"'abc' * 2", ErrType},
		{"'abc' > 2", ErrType},
		{`"\u00zz"`, ErrSyntax},
		{`"\u00"`, ErrSyntax},
		{`'\q'`, ErrSyntax},
		{"round(1.5, 400)", ErrType},
		{"round(1.5, -16)", ErrType},
	}
	for _, tc := range cases {
		_, err := eval.Evaluate(tc.expression, map[string]any{"zero": 0})
		if !errors.Is(err, tc.want) {
			t.Fatalf("Evaluate(%q) error = %v, want %v", tc.expression, err, tc.want)
		}
	}
}

func TestEvaluatorCachesPrograms(t *testing.T) {
	t.Parallel()

	eval := New()
	first, err := eval.Program("a + 1")
	if err != nil {
		t.Fatalf("Program returned error: %v", err)
	}
	second, err := eval.Program("  a + 1 ")
	if err != nil {
		t.Fatalf("Program returned error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached program to be reused")
	}
	if eval.Cached() != 1 {
		t.Fatalf("expected one cached program, got %d", eval.Cached())
	}

	uncached := New(WithCacheSize(0))
	if _, err := uncached.Evaluate("a + 1", nil); err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if uncached.Cached() != 0 {
		t.Fatalf("expected no cached programs, got %d", uncached.Cached())
	}
}

func TestCompiledProgramExposesSource(t *testing.T) {
	t.Parallel()

	program, err := Compile("  sourceValue * 2  ")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if program.Source() != "sourceValue * 2" {
		t.Fatalf("unexpected source %q", program.Source())
	}
	got, err := program.Eval(map[string]any{"sourceValue": int64(21)})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if got != float64(42) {
		t.Fatalf("expected 42, got %#v", got)
	}
}
