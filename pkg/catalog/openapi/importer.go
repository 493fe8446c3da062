// Package openapi imports an OpenAPI operation's request body as a form
// definition: each body property becomes a field, the schema constraints
// become validation rules and the operation path becomes the submit
// endpoint.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/model"
)

var (
	// ErrOperationNotFound reports an operation id absent from the document.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody reports an operation without an object request body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// Options tune the imported definition.
type Options struct {
	// FormID defaults to the operation id.
	FormID      string
	Module      string
	Version     string
	ClientTypes []string
	// ResolveReferences allows external $ref resolution and validates the
	// document before importing.
	ResolveReferences bool
}

// Import loads raw (JSON or YAML) and converts operationID into a catalog
// definition.
func Import(ctx context.Context, raw []byte, operationID string, opts Options) (catalog.Definition, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Definition{}, err
	}
	if len(raw) == 0 {
		return catalog.Definition{}, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.ResolveReferences,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return catalog.Definition{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.ResolveReferences {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return catalog.Definition{}, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	method, path, operation, ok := findOperation(doc, operationID)
	if !ok {
		return catalog.Definition{}, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(operation.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return catalog.Definition{}, fmt.Errorf("%w: %s", ErrNoRequestBody, operationID)
	}

	formID := strings.TrimSpace(opts.FormID)
	if formID == "" {
		formID = operationID
	}
	version := opts.Version
	if version == "" && doc.Info != nil {
		version = doc.Info.Version
	}
	title := operation.Summary
	if title == "" {
		title = model.Label(operationID)
	}

	meta := model.FormMetadata{
		ID:             formID,
		Title:          title,
		Description:    operation.Description,
		Version:        version,
		Module:         opts.Module,
		SubmitEndpoint: method + " " + path,
		IsActive:       true,
	}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for idx, name := range names {
		field := convertProperty(formID, name, schema.Properties[name])
		field.Required = required[name]
		field.Order = idx + 1
		meta.Fields = append(meta.Fields, field)
	}

	return catalog.Definition{
		Entry: model.FormEntry{
			ID:          formID,
			Title:       title,
			Description: operation.Description,
			Module:      opts.Module,
			ClientTypes: append([]string(nil), opts.ClientTypes...),
			Path:        path,
		},
		Metadata: meta,
		Source:   "openapi:" + operationID,
	}, nil
}

func findOperation(doc *openapi3.T, operationID string) (string, string, *openapi3.Operation, bool) {
	if doc.Paths == nil {
		return "", "", nil, false
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			if id == operationID {
				return strings.ToUpper(method), path, operation, true
			}
		}
	}
	return "", "", nil, false
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convertProperty(formID, name string, ref *openapi3.SchemaRef) model.FormField {
	field := model.FormField{
		ID:    name,
		Name:  name,
		Label: model.Label(name),
		Type:  model.FieldTypeText,
	}
	if ref == nil || ref.Value == nil {
		return field
	}
	src := ref.Value
	if src.Title != "" {
		field.Label = src.Title
	}
	field.HelpText = src.Description
	field.DefaultValue = src.Default
	field.ReadOnly = src.ReadOnly
	field.Type = fieldType(src)

	switch {
	case len(src.Enum) > 0:
		field.Options = options(src.Enum)
	case src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0:
		field.Options = options(src.Items.Value.Enum)
	}

	rule := func(kind model.RuleType, value any) {
		field.Validation = append(field.Validation, model.ValidationRule{
			ID:      formID + "." + name + "." + string(kind),
			FormID:  formID,
			FieldID: name,
			Type:    kind,
			Params:  map[string]any{"value": value},
		})
	}
	if src.Min != nil {
		rule(model.RuleMin, *src.Min)
	}
	if src.Max != nil {
		rule(model.RuleMax, *src.Max)
	}
	if src.MinLength > 0 {
		rule(model.RuleMinLength, float64(src.MinLength))
	}
	if src.MaxLength != nil {
		rule(model.RuleMaxLength, float64(*src.MaxLength))
	}
	if src.Pattern != "" {
		rule(model.RulePattern, src.Pattern)
	}
	return field
}

func fieldType(src *openapi3.Schema) model.FieldType {
	is := func(kind string) bool { return src.Type != nil && src.Type.Is(kind) }
	switch {
	case is(openapi3.TypeBoolean):
		return model.FieldTypeCheckbox
	case is(openapi3.TypeInteger):
		return model.FieldTypeInteger
	case is(openapi3.TypeNumber):
		return model.FieldTypeNumber
	case is(openapi3.TypeArray):
		if src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0 {
			return model.FieldTypeMultiSelect
		}
		return model.FieldTypeRepeater
	case len(src.Enum) > 0:
		return model.FieldTypeSelect
	}
	switch src.Format {
	case "date":
		return model.FieldTypeDate
	case "date-time":
		return model.FieldTypeDateTime
	case "email":
		return model.FieldTypeEmail
	case "uri", "url":
		return model.FieldTypeURL
	case "binary":
		return model.FieldTypeFile
	}
	if src.MaxLength != nil && *src.MaxLength > 255 {
		return model.FieldTypeTextarea
	}
	return model.FieldTypeText
}

func options(values []any) []model.Option {
	out := make([]model.Option, 0, len(values))
	for _, value := range values {
		out = append(out, model.Option{Value: value, Label: fmt.Sprint(value)})
	}
	return out
}
