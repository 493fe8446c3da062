package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/registry"
)

// Form builds a definition with an `id` completion field followed by fields.
func Form(id, module string, fields ...model.FormField) catalog.Definition {
	meta := model.FormMetadata{
		ID:             id,
		Title:          model.Label(id),
		Version:        "1.0",
		Module:         module,
		SubmitEndpoint: "/api/" + id,
		Fields:         append([]model.FormField{{ID: "id", Name: "id", Label: "ID", Type: model.FieldTypeHidden}}, fields...),
		IsActive:       true,
	}
	return catalog.Definition{
		Entry:    model.FormEntry{ID: id, Title: meta.Title, Module: module},
		Metadata: meta,
	}
}

// Field is a shorthand for a named field of the given type.
func Field(name string, fieldType model.FieldType) model.FormField {
	return model.FormField{ID: name, Name: name, Label: model.Label(name), Type: fieldType}
}

// Requires adds a required prerequisite dependency of def on formIDs.
func Requires(def catalog.Definition, formIDs ...string) catalog.Definition {
	for _, formID := range formIDs {
		def.Metadata.Dependencies = append(def.Metadata.Dependencies, model.FormDependency{
			FormID:   formID,
			Type:     model.FormDependencyPrerequisite,
			Required: true,
		})
	}
	return def
}

// References adds a dependency of the given type of def on formID.
func References(def catalog.Definition, formID string, kind model.FormDependencyType) catalog.Definition {
	def.Metadata.Dependencies = append(def.Metadata.Dependencies, model.FormDependency{FormID: formID, Type: kind})
	return def
}

// BudgetForms returns two finance forms: F1 with a numeric `amount` and F2
// with a numeric `total`, a shared `reference` text field and a calculated
// `tax` field.
func BudgetForms() []catalog.Definition {
	f1 := Form("F1", "finance",
		Field("amount", model.FieldTypeNumber),
		Field("reference", model.FieldTypeText),
	)
	tax := Field("tax", model.FieldTypeCalculated)
	tax.CalculationFormula = "total * 0.15"
	f2 := Form("F2", "finance",
		Field("total", model.FieldTypeNumber),
		Field("reference", model.FieldTypeText),
		tax,
	)
	f2 = References(f2, "F1", model.FormDependencyReference)
	return []catalog.Definition{f1, f2}
}

// PrerequisiteChain returns intake, assessment and plan, where assessment
// requires intake and plan requires assessment.
func PrerequisiteChain() []catalog.Definition {
	intake := Form("intake", "case", Field("name", model.FieldTypeText))
	assessment := Requires(Form("assessment", "case", Field("name", model.FieldTypeText), Field("score", model.FieldTypeNumber)), "intake")
	plan := Requires(Form("plan", "case", Field("goal", model.FieldTypeTextarea)), "assessment")
	return []catalog.Definition{intake, assessment, plan}
}

// Registry registers defs into a fresh registry, failing the test on error.
func Registry(t testing.TB, defs []catalog.Definition, options ...registry.Option) *registry.Registry {
	t.Helper()

	reg := registry.New(options...)
	if err := (catalog.Catalog{Forms: defs}).Register(reg); err != nil {
		t.Fatalf("register fixtures: %v", err)
	}
	return reg
}

// Clock returns a time source that advances by step on every call, starting
// one step after start.
func Clock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

// ManualClock is a time source moved explicitly by tests.
type ManualClock struct {
	Current time.Time
}

// Now returns the current time.
func (c *ManualClock) Now() time.Time { return c.Current }

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
