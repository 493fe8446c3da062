package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/model"
)

const petstore = `{
  "openapi": "3.0.0",
  "info": { "title": "Cases", "version": "1.4.0" },
  "paths": {
    "/cases": {
      "post": {
        "operationId": "createCase",
        "summary": "Create case",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name", "amount"],
                "properties": {
                  "name": { "type": "string", "minLength": 2, "maxLength": 80 },
                  "amount": { "type": "number", "minimum": 0, "maximum": 5000 },
                  "visits": { "type": "integer" },
                  "urgent": { "type": "boolean" },
                  "opened": { "type": "string", "format": "date" },
                  "contact": { "type": "string", "format": "email", "pattern": "@example\\.org$" },
                  "status": { "type": "string", "enum": ["open", "closed"] },
                  "tags": { "type": "array", "items": { "type": "string", "enum": ["a", "b"] } }
                }
              }
            }
          }
        },
        "responses": { "201": { "description": "created" } }
      },
      "get": {
        "operationId": "listCases",
        "responses": { "200": { "description": "ok" } }
      }
    }
  }
}`

func TestImportBuildsFormFromRequestBody(t *testing.T) {
	t.Parallel()

	def, err := Import(context.Background(), []byte(petstore), "createCase", Options{Module: "case", ClientTypes: []string{"FDF"}})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	meta := def.Metadata
	if meta.ID != "createCase" || meta.Title != "Create case" || meta.Version != "1.4.0" {
		t.Fatalf("unexpected identity %q %q %q", meta.ID, meta.Title, meta.Version)
	}
	if meta.SubmitEndpoint != "POST /cases" {
		t.Fatalf("expected submit endpoint from path, got %q", meta.SubmitEndpoint)
	}

	types := map[string]model.FieldType{}
	required := map[string]bool{}
	for _, field := range meta.Fields {
		types[field.Name] = field.Type
		required[field.Name] = field.Required
	}
	wantTypes := map[string]model.FieldType{
		"amount":  model.FieldTypeNumber,
		"contact": model.FieldTypeEmail,
		"name":    model.FieldTypeText,
		"opened":  model.FieldTypeDate,
		"status":  model.FieldTypeSelect,
		"tags":    model.FieldTypeMultiSelect,
		"urgent":  model.FieldTypeCheckbox,
		"visits":  model.FieldTypeInteger,
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Fatalf("field types mismatch (-want +got):\n%s", diff)
	}
	if !required["name"] || !required["amount"] || required["status"] {
		t.Fatalf("unexpected required flags %#v", required)
	}

	amount, _ := meta.Field("amount")
	var kinds []model.RuleType
	for _, rule := range amount.Validation {
		kinds = append(kinds, rule.Type)
	}
	if diff := cmp.Diff([]model.RuleType{model.RuleMin, model.RuleMax}, kinds); diff != "" {
		t.Fatalf("amount rules mismatch (-want +got):\n%s", diff)
	}

	status, _ := meta.Field("status")
	if len(status.Options) != 2 || status.Options[0].Value != "open" {
		t.Fatalf("expected enum options, got %#v", status.Options)
	}
	if def.Entry.Module != "case" || def.Entry.Path != "/cases" {
		t.Fatalf("unexpected entry %#v", def.Entry)
	}
}

func TestImportReportsMissingOperationAndBody(t *testing.T) {
	t.Parallel()

	if _, err := Import(context.Background(), []byte(petstore), "deleteCase", Options{}); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := Import(context.Background(), []byte(petstore), "listCases", Options{}); !errors.Is(err, ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
}

func TestImportHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Import(ctx, []byte(petstore), "createCase", Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
