package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/resolver"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/tracker"
)

type stubDriver struct {
	texts      []string
	confirm    []bool
	choices    [][]int
	messages   []string
	textPos    int
	confirmPos int
	choicePos  int
}

func (s *stubDriver) Text(_ context.Context, q Question) (string, error) {
	s.messages = append(s.messages, q.Message)
	if s.textPos >= len(s.texts) {
		return "", errors.New("no text scripted")
	}
	val := s.texts[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, q Question) (bool, error) {
	s.messages = append(s.messages, q.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Choose(_ context.Context, q Question) ([]int, error) {
	s.messages = append(s.messages, q.Message)
	if s.choicePos >= len(s.choices) {
		return nil, errors.New("no choice scripted")
	}
	val := s.choices[s.choicePos]
	s.choicePos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.messages = append(s.messages, msg)
	return nil
}

func followUpForm() catalog.Definition {
	name := testsupport.Field("name", model.FieldTypeText)
	name.Required = true
	followUp := testsupport.Field("followUp", model.FieldTypeCheckbox)
	followUpDate := testsupport.Field("followUpDate", model.FieldTypeDate)
	followUpDate.Dependencies = []model.FieldDependency{
		{Type: model.FieldDependencyVisibility, SourceField: "followUp", Condition: "value == true"},
	}
	status := testsupport.Field("status", model.FieldTypeSelect)
	status.Options = []model.Option{{Value: "open", Label: "Open"}, {Value: "closed", Label: "Closed"}}
	tags := testsupport.Field("tags", model.FieldTypeMultiSelect)
	tags.Options = []model.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}, {Value: "c", Label: "C"}}
	score := testsupport.Field("score", model.FieldTypeCalculated)
	score.CalculationFormula = "len(tags)"
	return testsupport.Form("visit", "case",
		name,
		testsupport.Field("age", model.FieldTypeNumber),
		followUp,
		followUpDate,
		status,
		tags,
		testsupport.Field("notes", model.FieldTypeTextarea),
		score,
	)
}

func newSession(t *testing.T) *engine.Engine {
	t.Helper()
	reg := testsupport.Registry(t, []catalog.Definition{followUpForm()})
	tr := tracker.New()
	return engine.New(reg, tr, resolver.New(reg, tr))
}

func TestFillAsksRevealedFieldsAndTracksAnswers(t *testing.T) {
	t.Parallel()

	session := newSession(t)
	driver := &stubDriver{
		texts:   []string{"Ada", "42", "2024-05-01", "first visit"},
		confirm: []bool{true},
		choices: [][]int{{1}, {0, 2}},
	}

	values, err := NewFiller(driver).Fill(context.Background(), session, "visit", "FDF", "tester", nil)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	want := map[string]any{
		"name":         "Ada",
		"age":          float64(42),
		"followUp":     true,
		"followUpDate": "2024-05-01",
		"status":       "closed",
		"tags":         []any{"a", "c"},
		"notes":        "first visit",
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	wantPrompts := []string{"Name *", "Age", "Follow Up", "Follow Up Date", "Status", "Tags", "Notes"}
	if diff := cmp.Diff(wantPrompts, driver.messages); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	if got, _ := session.Tracker().GetParameterValue("visit", "status"); got != "closed" {
		t.Fatalf("expected answers tracked, got %#v", got)
	}
}

func TestFillSkipsFieldsHiddenByAnswers(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		texts:   []string{"Ada", "", ""},
		confirm: []bool{false},
		choices: [][]int{{0}, {}},
	}
	values, err := NewFiller(driver).Fill(context.Background(), newSession(t), "visit", "FDF", "", nil)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if _, ok := values["followUpDate"]; ok {
		t.Fatalf("followUpDate should not be asked, got %#v", values)
	}
	if values["age"] != nil {
		t.Fatalf("expected blank number stored as nil, got %#v", values["age"])
	}
}

func TestFillReportsUnknownFormAndAbort(t *testing.T) {
	t.Parallel()

	_, err := NewFiller(&stubDriver{}).Fill(context.Background(), newSession(t), "missing", "FDF", "", nil)
	if !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}

	_, err = NewFiller(&stubDriver{}).Fill(context.Background(), newSession(t), "visit", "FDF", "", nil)
	if err == nil {
		t.Fatalf("expected driver error to stop the fill")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	withOptions := func(fieldType model.FieldType) model.FormField {
		field := testsupport.Field("f", fieldType)
		field.Options = []model.Option{{Value: "x"}}
		return field
	}
	readOnly := testsupport.Field("f", model.FieldTypeText)
	readOnly.ReadOnly = true

	cases := []struct {
		field model.FormField
		want  Kind
	}{
		{testsupport.Field("f", model.FieldTypeText), KindInput},
		{testsupport.Field("f", model.FieldTypeCheckbox), KindConfirm},
		{testsupport.Field("f", model.FieldTypeTextarea), KindTextArea},
		{withOptions(model.FieldTypeSelect), KindSelect},
		{testsupport.Field("f", model.FieldTypeSelect), KindInput},
		{withOptions(model.FieldTypeMultiSelect), KindMultiSelect},
		{testsupport.Field("f", model.FieldTypeHidden), KindSkip},
		{testsupport.Field("f", model.FieldTypeCalculated), KindSkip},
		{readOnly, KindSkip},
	}
	for _, tc := range cases {
		if got := KindOf(tc.field); got != tc.want {
			t.Fatalf("KindOf(%s) = %s, want %s", tc.field.Type, got, tc.want)
		}
	}
}

func TestValidatorRejectsMalformedNumbers(t *testing.T) {
	t.Parallel()

	age := testsupport.Field("age", model.FieldTypeNumber)
	age.Required = true
	check := validator(age)
	if err := check(""); err == nil {
		t.Fatalf("expected required error")
	}
	if err := check("forty"); err == nil {
		t.Fatalf("expected number error")
	}
	if err := check("40"); err != nil {
		t.Fatalf("expected 40 accepted, got %v", err)
	}
}

func TestNewQuestionCarriesDefaultsAndOptions(t *testing.T) {
	t.Parallel()

	status := testsupport.Field("status", model.FieldTypeSelect)
	status.Options = []model.Option{{Value: "open", Label: "Open"}, {Value: "closed"}}
	status.HelpText = "Case status"
	status.Required = true

	got := NewQuestion(status, "closed")
	want := Question{
		Key:      "status",
		Kind:     KindSelect,
		Message:  "Status *",
		Help:     "Case status",
		Options:  []string{"Open", "closed"},
		Selected: []int{1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("select question mismatch (-want +got):\n%s", diff)
	}

	tags := testsupport.Field("tags", model.FieldTypeMultiSelect)
	tags.Options = []model.Option{{Value: "a"}, {Value: "b"}, {Value: "c"}}
	tags.DefaultValue = []any{"c", "a"}
	if diff := cmp.Diff([]int{2, 0}, NewQuestion(tags, nil).Selected); diff != "" {
		t.Fatalf("multiselect defaults mismatch (-want +got):\n%s", diff)
	}

	followUp := testsupport.Field("followUp", model.FieldTypeCheckbox)
	followUp.DefaultValue = true
	if q := NewQuestion(followUp, nil); q.Kind != KindConfirm || !q.Checked {
		t.Fatalf("expected checked confirm question, got %#v", q)
	}

	age := testsupport.Field("age", model.FieldTypeNumber)
	q := NewQuestion(age, float64(0))
	if q.Default != "0" || q.Validate == nil {
		t.Fatalf("expected prefilled, validated input, got default %q", q.Default)
	}
	if err := q.Validate("forty"); err == nil {
		t.Fatalf("expected malformed number rejected")
	}
	if q := NewQuestion(age, nil); q.Default != "" {
		t.Fatalf("expected empty default for unset value, got %q", q.Default)
	}
}
