package resolver

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/tracker"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func newResolver(t *testing.T, defs []catalog.Definition, options ...Option) (*Resolver, *tracker.Tracker, *registry.Registry) {
	t.Helper()
	reg := testsupport.Registry(t, defs)
	tr := tracker.New()
	return New(reg, tr, options...), tr, reg
}

func set(t *testing.T, tr *tracker.Tracker, form, field string, value any) {
	t.Helper()
	if err := tr.SetParameterValue(form, field, value, "FDF", "tester"); err != nil {
		t.Fatalf("SetParameterValue(%s.%s) returned error: %v", form, field, err)
	}
}

func TestResolveDependenciesFiltersByClientType(t *testing.T) {
	t.Parallel()

	plan := testsupport.Form("plan", "case")
	plan.Metadata.Dependencies = []model.FormDependency{
		{FormID: "intake", Type: model.FormDependencyPrerequisite, Required: true},
		{FormID: "budget", Type: model.FormDependencyReference, ClientTypes: []string{"ADHA"}},
	}
	res, _, _ := newResolver(t, []catalog.Definition{
		testsupport.Form("intake", "case"),
		testsupport.Form("budget", "finance"),
		plan,
	})

	forms := func(deps []model.FormDependency) []string {
		var out []string
		for _, dep := range deps {
			out = append(out, dep.FormID)
		}
		return out
	}
	if diff := cmp.Diff([]string{"intake"}, forms(res.ResolveDependencies("plan", "FDF", "", true))); diff != "" {
		t.Fatalf("FDF dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"intake", "budget"}, forms(res.ResolveDependencies("plan", "ADHA", "", true))); diff != "" {
		t.Fatalf("ADHA dependencies mismatch (-want +got):\n%s", diff)
	}
	if got := res.ResolveDependencies("missing", "FDF", "", true); len(got) != 0 {
		t.Fatalf("expected no dependencies for unknown form, got %#v", got)
	}
}

func TestResolveDependenciesCacheExpires(t *testing.T) {
	t.Parallel()

	clock := &testsupport.ManualClock{Current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := testsupport.Registry(t, testsupport.PrerequisiteChain())
	res := New(reg, tracker.New(), WithClock(clock.Now), WithCacheExpiration(time.Minute))

	if got := res.ResolveDependencies("plan", "FDF", "", true); len(got) != 1 {
		t.Fatalf("expected one dependency, got %d", len(got))
	}

	updated := testsupport.Requires(testsupport.Form("plan", "case"), "assessment", "intake")
	if err := reg.Register(updated.Entry, updated.Metadata); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if got := res.ResolveDependencies("plan", "FDF", "", true); len(got) != 1 {
		t.Fatalf("expected cached result before expiry, got %d dependencies", len(got))
	}
	if got := res.ResolveDependencies("plan", "FDF", "", false); len(got) != 2 {
		t.Fatalf("expected fresh result when bypassing the cache, got %d", len(got))
	}

	res.InvalidateForm("plan")
	res.ResolveDependencies("plan", "FDF", "", true)
	updated = testsupport.Requires(testsupport.Form("plan", "case"), "assessment")
	if err := reg.Register(updated.Entry, updated.Metadata); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if got := res.ResolveDependencies("plan", "FDF", "", true); len(got) != 1 {
		t.Fatalf("expected expired entry to be recomputed, got %d dependencies", len(got))
	}
}

func TestNotifyDependentFormsInvalidatesCache(t *testing.T) {
	t.Parallel()

	res, _, reg := newResolver(t, testsupport.PrerequisiteChain())
	if got := res.ResolveDependencies("intake", "FDF", "", true); len(got) != 0 {
		t.Fatalf("expected intake without dependencies, got %#v", got)
	}

	updated := testsupport.References(testsupport.Form("intake", "case", testsupport.Field("name", model.FieldTypeText)), "plan", model.FormDependencyFollowup)
	if err := reg.Register(updated.Entry, updated.Metadata); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if got := res.ResolveDependencies("intake", "FDF", "", true); len(got) != 0 {
		t.Fatalf("expected stale cached result before notification, got %#v", got)
	}

	if err := res.NotifyDependentForms("intake", "FDF", ""); err != nil {
		t.Fatalf("NotifyDependentForms returned error: %v", err)
	}
	got := res.ResolveDependencies("intake", "FDF", "", true)
	if len(got) != 1 || got[0].FormID != "plan" {
		t.Fatalf("expected recomputed dependencies after notification, got %#v", got)
	}
}

func TestNotifyDependentFormsHonoursOverrideDependencies(t *testing.T) {
	t.Parallel()

	src := testsupport.Form("src", "finance", testsupport.Field("reference", model.FieldTypeText))
	dst := testsupport.Form("dst", "finance", testsupport.Field("reference", model.FieldTypeText))
	dst.Metadata.ClientTypeOverrides = map[string]model.FormOverride{
		"ADHA": {Dependencies: []model.FormDependency{{FormID: "src", Type: model.FormDependencyReference}}},
	}

	for _, tc := range []struct {
		clientType string
		want       any
		wantSet    bool
	}{
		{clientType: "ADHA", want: "R-1", wantSet: true},
		{clientType: "FDF", want: nil, wantSet: false},
	} {
		res, tr, _ := newResolver(t, []catalog.Definition{src, dst})
		if err := tr.SetParameterValue("src", "reference", "R-1", tc.clientType, ""); err != nil {
			t.Fatalf("SetParameterValue returned error: %v", err)
		}
		if err := res.NotifyDependentForms("src", tc.clientType, ""); err != nil {
			t.Fatalf("NotifyDependentForms returned error: %v", err)
		}
		got, set := tr.GetParameterValue("dst", "reference")
		if set != tc.wantSet || got != tc.want {
			t.Fatalf("%s: expected dst.reference %#v (set=%v), got %#v (set=%v)", tc.clientType, tc.want, tc.wantSet, got, set)
		}
	}
}

func TestCheckPrerequisites(t *testing.T) {
	t.Parallel()

	res, tr, _ := newResolver(t, testsupport.PrerequisiteChain())

	result := res.CheckPrerequisites("assessment", "FDF")
	if result.Valid || len(result.MissingPrerequisites) != 1 {
		t.Fatalf("expected one missing prerequisite, got %#v", result)
	}
	if !strings.Contains(result.MissingPrerequisites[0], "intake") {
		t.Fatalf("expected description naming intake, got %q", result.MissingPrerequisites[0])
	}

	set(t, tr, "intake", "id", "")
	if res.CheckPrerequisites("assessment", "FDF").Valid {
		t.Fatalf("expected an empty id not to complete intake")
	}

	set(t, tr, "intake", "id", "rec-1")
	if result := res.CheckPrerequisites("assessment", "FDF"); !result.Valid || len(result.MissingPrerequisites) != 0 {
		t.Fatalf("expected prerequisites satisfied, got %#v", result)
	}
	if res.CheckPrerequisites("intake", "FDF").Valid != true {
		t.Fatalf("expected a form without prerequisites to be valid")
	}
}

func TestCheckPrerequisitesHonoursCondition(t *testing.T) {
	t.Parallel()

	assessment := testsupport.Form("assessment", "case", testsupport.Field("score", model.FieldTypeNumber))
	assessment.Metadata.Dependencies = []model.FormDependency{{
		FormID:    "intake",
		Type:      model.FormDependencyPrerequisite,
		Required:  true,
		Condition: "score > 10",
	}}
	res, tr, _ := newResolver(t, []catalog.Definition{testsupport.Form("intake", "case"), assessment})

	set(t, tr, "assessment", "score", 5)
	if !res.CheckPrerequisites("assessment", "FDF").Valid {
		t.Fatalf("expected prerequisite skipped while its condition is false")
	}
	set(t, tr, "assessment", "score", 50)
	res.ClearCache()
	if res.CheckPrerequisites("assessment", "FDF").Valid {
		t.Fatalf("expected prerequisite enforced once its condition holds")
	}
}

func TestPropagateDataAppliesExplicitAndNameMatchedFields(t *testing.T) {
	t.Parallel()

	source := testsupport.Form("source", "case",
		testsupport.Field("amount", model.FieldTypeText),
		testsupport.Field("name", model.FieldTypeText),
		testsupport.Field("secret", model.FieldTypeText),
		testsupport.Field("city", model.FieldTypeText),
	)
	source.Metadata.Fields[3].NoPropagation = true
	source.Metadata.Fields[4].TransformOnPropagation = "upper(value)"

	target := testsupport.Form("target", "case",
		testsupport.Field("amount", model.FieldTypeNumber),
		testsupport.Field("name", model.FieldTypeText),
		testsupport.Field("secret", model.FieldTypeText),
		testsupport.Field("city", model.FieldTypeText),
		testsupport.Field("doubled", model.FieldTypeNumber),
	)
	target.Metadata.Fields[4].TransformOnReceive = "value + '!'"

	res, tr, _ := newResolver(t, []catalog.Definition{source, target})
	if _, err := res.RegisterDependency(model.ParameterDependency{
		ID:                     "double-name",
		SourceFormID:           "source",
		SourceParameterID:      "name",
		TargetFormID:           "target",
		TargetParameterID:      "doubled",
		TransformationFunction: "len(sourceValue) * 2",
	}); err != nil {
		t.Fatalf("RegisterDependency returned error: %v", err)
	}

	set(t, tr, "source", "amount", "42")
	set(t, tr, "source", "secret", "hush")
	set(t, tr, "source", "city", "lyon")
	set(t, tr, "source", "name", "Ada")

	if _, err := res.PropagateData("source", "target", "FDF", "tester"); err != nil {
		t.Fatalf("PropagateData returned error: %v", err)
	}

	got := tr.FormValues("target")
	want := map[string]any{
		"amount":  float64(42),
		"city":    "LYON!",
		"doubled": float64(6),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("target values mismatch (-want +got):\n%s", diff)
	}
}

func TestPropagateDataUsesFieldMappings(t *testing.T) {
	t.Parallel()

	source := testsupport.Form("source", "case", testsupport.Field("income", model.FieldTypeNumber))
	target := testsupport.Form("target", "case", testsupport.Field("yearly", model.FieldTypeNumber))
	target.Metadata.Dependencies = []model.FormDependency{{
		FormID: "source",
		Type:   model.FormDependencyDerived,
		FieldMappings: []model.FieldMapping{
			{SourceField: "income", TargetField: "yearly", Transformation: "sourceValue * 12"},
		},
	}}
	res, tr, _ := newResolver(t, []catalog.Definition{source, target})

	set(t, tr, "source", "income", 100)
	written, err := res.PropagateData("source", "target", "FDF", "")
	if err != nil {
		t.Fatalf("PropagateData returned error: %v", err)
	}
	if diff := cmp.Diff([]model.ParameterRef{{FormID: "target", ParameterID: "yearly"}}, written); diff != "" {
		t.Fatalf("written refs mismatch (-want +got):\n%s", diff)
	}
	if got, _ := tr.GetParameterValue("target", "yearly"); got != float64(1200) {
		t.Fatalf("expected yearly == 1200, got %#v", got)
	}

	written, err = res.PropagateData("source", "target", "FDF", "")
	if err != nil || len(written) != 0 {
		t.Fatalf("expected unchanged value not to be rewritten, got %v (err %v)", written, err)
	}
}

func TestPropagateDataSkipsBrokenTransform(t *testing.T) {
	t.Parallel()

	source := testsupport.Form("source", "case", testsupport.Field("name", model.FieldTypeText))
	source.Metadata.Fields[1].TransformOnPropagation = "upper("
	target := testsupport.Form("target", "case", testsupport.Field("name", model.FieldTypeText))

	var logs bytes.Buffer
	reg := testsupport.Registry(t, []catalog.Definition{source, target})
	tr := tracker.New()
	res := New(reg, tr, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	set(t, tr, "source", "name", "Ada")
	if _, err := res.PropagateData("source", "target", "FDF", ""); err != nil {
		t.Fatalf("PropagateData returned error: %v", err)
	}
	if _, ok := tr.GetParameterValue("target", "name"); ok {
		t.Fatalf("expected the failing field to be skipped")
	}
	if !strings.Contains(logs.String(), "propagation transform failed") {
		t.Fatalf("expected a logged warning, got %q", logs.String())
	}
}

func TestValidateAcrossFormsReportsMismatches(t *testing.T) {
	t.Parallel()

	res, tr, _ := newResolver(t, testsupport.BudgetForms())
	set(t, tr, "F1", "reference", "INV-1")
	set(t, tr, "F2", "reference", "INV-2")

	result := res.ValidateAcrossForms([]string{"F1", "F2"}, "FDF", true)
	if result.Valid {
		t.Fatalf("expected mismatch to invalidate the forms")
	}
	if diff := cmp.Diff([]string{"F2.reference"}, result.Fields()); diff != "" {
		t.Fatalf("error fields mismatch (-want +got):\n%s", diff)
	}

	set(t, tr, "F2", "reference", "INV-1")
	if result := res.ValidateAcrossForms([]string{"F1", "F2"}, "FDF", true); !result.Valid {
		t.Fatalf("expected cached result dropped after a change, got %#v", result.Errors)
	}
}

func TestValidateAcrossFormsHonoursExemptions(t *testing.T) {
	t.Parallel()

	for _, side := range []int{0, 1} {
		defs := testsupport.BudgetForms()
		other := "F2"
		if side == 1 {
			other = "F1"
		}
		defs[side].Metadata.Fields[2].ValidationExemptions = []string{other}

		res, tr, _ := newResolver(t, defs)
		set(t, tr, "F1", "reference", "INV-1")
		set(t, tr, "F2", "reference", "INV-2")
		if result := res.ValidateAcrossForms([]string{"F1", "F2"}, "FDF", true); !result.Valid {
			t.Fatalf("expected exemption on %s to validate, got %#v", defs[side].ID(), result.Errors)
		}
	}
}

func TestValidateAcrossFormsSkipsDerivedAndLocalFields(t *testing.T) {
	t.Parallel()

	defs := testsupport.BudgetForms()
	defs[1].Metadata.Fields[2].LocalOnly = true
	res, tr, _ := newResolver(t, defs)
	set(t, tr, "F1", "reference", "INV-1")
	set(t, tr, "F2", "reference", "INV-2")

	if result := res.ValidateAcrossForms([]string{"F1", "F2"}, "FDF", false); !result.Valid {
		t.Fatalf("expected local-only field to be ignored, got %#v", result.Errors)
	}
}

func TestValidateAcrossFormsIncludesPrerequisites(t *testing.T) {
	t.Parallel()

	res, tr, _ := newResolver(t, testsupport.PrerequisiteChain())
	result := res.ValidateAcrossForms([]string{"assessment"}, "FDF", true)
	if result.Valid || result.Errors[0].FieldID != "assessment" {
		t.Fatalf("expected missing prerequisite error, got %#v", result)
	}

	set(t, tr, "intake", "id", "rec-1")
	if result := res.ValidateAcrossForms([]string{"assessment"}, "FDF", true); !result.Valid {
		t.Fatalf("expected completion of intake to refresh the cached result, got %#v", result.Errors)
	}
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	amount := testsupport.Field("amount", model.FieldTypeNumber)
	amount.Required = true
	amount.Validation = []model.ValidationRule{{Type: model.RuleMin, Params: map[string]any{"value": 10}}}
	store := validation.NewStore()
	if _, err := store.Add(model.ValidationRule{FormID: "budget", FieldID: "amount", Type: model.RuleMax, Params: map[string]any{"value": 100}}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	res, _, _ := newResolver(t, []catalog.Definition{testsupport.Form("budget", "finance", amount)}, WithRuleStore(store))

	cases := []struct {
		name  string
		field string
		value any
		valid bool
	}{
		{"missing required", "amount", "", false},
		{"not a number", "amount", "abc", false},
		{"below min", "amount", 5, false},
		{"above stored max", "amount", 500, false},
		{"in range", "amount", "50", true},
		{"unknown field", "nope", 1, false},
	}
	for _, tc := range cases {
		if got := res.ValidateField("budget", tc.field, tc.value, "FDF"); got.Valid != tc.valid {
			t.Fatalf("%s: expected valid=%v, got %#v", tc.name, tc.valid, got)
		}
	}
}

func TestGetWorkflowPath(t *testing.T) {
	t.Parallel()

	defs := append(testsupport.PrerequisiteChain(), testsupport.Form("survey", "case"))
	res, tr, _ := newResolver(t, defs)
	ids := []string{"intake", "assessment", "plan", "survey"}

	want := []WorkflowStep{
		{FormID: "intake", Status: StatusCurrent, Optional: false},
		{FormID: "assessment", Status: StatusPending, Optional: false},
		{FormID: "plan", Status: StatusPending, Optional: true},
		{FormID: "survey", Status: StatusPending, Optional: true},
	}
	if diff := cmp.Diff(want, res.GetWorkflowPath(ids, "FDF")); diff != "" {
		t.Fatalf("initial workflow mismatch (-want +got):\n%s", diff)
	}

	set(t, tr, "intake", "id", "rec-1")
	res.ClearCache()
	want[0].Status = StatusCompleted
	want[1].Status = StatusCurrent
	if diff := cmp.Diff(want, res.GetWorkflowPath(ids, "FDF")); diff != "" {
		t.Fatalf("workflow after intake mismatch (-want +got):\n%s", diff)
	}

	steps := res.GetWorkflowPath([]string{"plan"}, "FDF")
	if len(steps) != 1 || steps[0].Status != StatusCurrent {
		t.Fatalf("expected the first pending form promoted when none is ready, got %#v", steps)
	}
}

func TestNotifyDependentFormsPropagatesAndRunsWorkflowDependencies(t *testing.T) {
	t.Parallel()

	defs := append(testsupport.PrerequisiteChain(), testsupport.Form("archive", "case", testsupport.Field("name", model.FieldTypeText)))
	res, tr, _ := newResolver(t, defs)
	if _, err := res.RegisterDependency(model.ParameterDependency{
		ID:                     "archive-on-submit",
		SourceFormID:           "intake",
		SourceParameterID:      "id",
		TargetFormID:           "archive",
		TargetParameterID:      "id",
		DependencyType:         model.ParameterDependencyWorkflow,
		Condition:              "!isEmpty(sourceValue)",
		TransformationFunction: "'arch-' + sourceValue",
	}); err != nil {
		t.Fatalf("RegisterDependency returned error: %v", err)
	}

	set(t, tr, "intake", "name", "Ada")
	if err := res.NotifyDependentForms("intake", "FDF", ""); err != nil {
		t.Fatalf("NotifyDependentForms returned error: %v", err)
	}
	if got, _ := tr.GetParameterValue("assessment", "name"); got != "Ada" {
		t.Fatalf("expected name propagated to assessment, got %#v", got)
	}
	if _, ok := tr.GetParameterValue("archive", "name"); ok {
		t.Fatalf("expected workflow dependency skipped while its condition is false")
	}

	set(t, tr, "intake", "id", "rec-1")
	if err := res.NotifyDependentForms("intake", "FDF", ""); err != nil {
		t.Fatalf("NotifyDependentForms returned error: %v", err)
	}
	if got, _ := tr.GetParameterValue("archive", "id"); got != "arch-rec-1" {
		t.Fatalf("expected workflow dependency applied to archive id, got %#v", got)
	}
	if got, _ := tr.GetParameterValue("archive", "name"); got != "Ada" {
		t.Fatalf("expected workflow dependency to propagate intake data into archive, got %#v", got)
	}
}

func TestRegisterDependencyStrictness(t *testing.T) {
	t.Parallel()

	dangling := model.ParameterDependency{SourceFormID: "intake", SourceParameterID: "nope", TargetFormID: "ghost", TargetParameterID: "x"}

	var logs bytes.Buffer
	reg := testsupport.Registry(t, testsupport.PrerequisiteChain())
	permissive := New(reg, tracker.New(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if _, err := permissive.RegisterDependency(dangling); err != nil {
		t.Fatalf("expected permissive registration to succeed, got %v", err)
	}
	if !strings.Contains(logs.String(), "unknown target") {
		t.Fatalf("expected warning for dangling references, got %q", logs.String())
	}

	strict := New(reg, tracker.New(), WithStrict(true))
	if _, err := strict.RegisterDependency(dangling); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference in strict mode, got %v", err)
	}
	if err := strict.RegisterFormDependency("plan", model.FormDependency{FormID: "ghost"}); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference for form dependency, got %v", err)
	}
	if err := strict.RegisterFormDependency("plan", model.FormDependency{FormID: "intake", Type: model.FormDependencyReference}); err != nil {
		t.Fatalf("expected known form dependency to register, got %v", err)
	}
	deps := strict.ResolveDependencies("plan", "FDF", "", true)
	if len(deps) != 2 || deps[1].FormID != "intake" {
		t.Fatalf("expected registered dependency appended, got %#v", deps)
	}
}
