package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func overrideFixture() FormMetadata {
	return FormMetadata{
		ID:      "intake",
		Title:   "Intake",
		Version: "1.0",
		Module:  "case",
		Sections: []FormSection{
			{ID: "main", Title: "Main", Order: 1},
			{ID: "extra", Title: "Extra", Order: 2},
		},
		Fields: []FormField{
			{
				ID:       "income",
				Name:     "income",
				Label:    "Income",
				Type:     FieldTypeNumber,
				Required: false,
				ClientTypeOverrides: map[string]FieldOverride{
					"FDF": {Label: String("Monthly income"), Required: Bool(true)},
				},
			},
			{ID: "notes", Name: "notes", Label: "Notes", Type: FieldTypeTextarea},
		},
		ClientTypeOverrides: map[string]FormOverride{
			"ADHA": {
				Title:    String("ADHA Intake"),
				Sections: []FormSection{{ID: "adha", Title: "ADHA only"}},
			},
		},
	}
}

func TestResolveFieldAppliesOnlyOverriddenAttributes(t *testing.T) {
	t.Parallel()

	base := overrideFixture()
	resolved := ResolveForm(base, "FDF")

	want := base.Fields[0]
	want.Label = "Monthly income"
	want.Required = true
	if diff := cmp.Diff(want, resolved.Fields[0]); diff != "" {
		t.Fatalf("overridden field mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(base.Fields[1], resolved.Fields[1]); diff != "" {
		t.Fatalf("field without override changed (-want +got):\n%s", diff)
	}
	if resolved.Title != "Intake" {
		t.Fatalf("expected base title, got %q", resolved.Title)
	}
}

func TestResolveFormReplacesCollectionsWholesale(t *testing.T) {
	t.Parallel()

	resolved := ResolveForm(overrideFixture(), "ADHA")
	if resolved.Title != "ADHA Intake" {
		t.Fatalf("expected overridden title, got %q", resolved.Title)
	}
	want := []FormSection{{ID: "adha", Title: "ADHA only"}}
	if diff := cmp.Diff(want, resolved.Sections); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
	if len(resolved.Fields) != 2 {
		t.Fatalf("fields were not overridden and should be kept, got %d", len(resolved.Fields))
	}
}

func TestResolveFormDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := overrideFixture()
	resolved := ResolveForm(base, "FDF")
	resolved.Fields[1].Label = "changed"
	resolved.Sections[0].Title = "changed"

	if base.Fields[1].Label != "Notes" || base.Sections[0].Title != "Main" {
		t.Fatalf("resolved copy shares storage with base")
	}
}

func TestResolveFieldIsIdempotent(t *testing.T) {
	t.Parallel()

	field := overrideFixture().Fields[0]
	once := ResolveField(field, "FDF")
	twice := ResolveField(once, "FDF")
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second resolve changed the field (-want +got):\n%s", diff)
	}
}

func TestNormalizeFillsIdentifiers(t *testing.T) {
	t.Parallel()

	form := FormMetadata{Fields: []FormField{
		{Name: "monthly_income"},
		{ID: "dateOfBirth", Type: FieldTypeDate},
	}}
	if err := Normalize.Decorate(&form); err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	want := []FormField{
		{ID: "monthly_income", Name: "monthly_income", Label: "Monthly Income", Type: FieldTypeText, Order: 1},
		{ID: "dateOfBirth", Name: "dateOfBirth", Label: "Date Of Birth", Type: FieldTypeDate, Order: 2},
	}
	if diff := cmp.Diff(want, form.Fields); diff != "" {
		t.Fatalf("normalized fields mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroValueByFamily(t *testing.T) {
	t.Parallel()

	cases := map[FieldType]any{
		FieldTypeText:        "",
		FieldTypeCurrency:    float64(0),
		FieldTypeCheckbox:    false,
		FieldTypeMultiSelect: []any{},
		FieldTypeSelect:      "",
		FieldTypeDate:        nil,
		FieldTypeFile:        nil,
	}
	for fieldType, want := range cases {
		if diff := cmp.Diff(want, ZeroValue(fieldType)); diff != "" {
			t.Fatalf("zero value for %s mismatch (-want +got):\n%s", fieldType, diff)
		}
	}
}
