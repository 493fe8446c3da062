package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/tracker"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// MetadataKey is the payload key holding submission metadata.
const MetadataKey = "_metadata"

// idPlaceholder is replaced by the record id in fetch endpoints.
const idPlaceholder = "{id}"

// Submitter posts submission payloads and fetches stored records.
type Submitter interface {
	Post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error)
	Get(ctx context.Context, endpoint string) (map[string]any, error)
}

// SubmitResult is the outcome of SubmitForm. Err carries the sentinel or
// transport error behind Error.
type SubmitResult struct {
	Success              bool              `json:"success"`
	Data                 map[string]any    `json:"data,omitempty"`
	Error                string            `json:"error,omitempty"`
	Validation           validation.Result `json:"validation"`
	MissingPrerequisites []string          `json:"missingPrerequisites,omitempty"`
	Err                  error             `json:"-"`
}

func failed(err error) SubmitResult {
	return SubmitResult{Error: err.Error(), Validation: validation.NewResult(), Err: err}
}

// GenerateSubmissionPayload computes the calculated fields of data and
// attaches the submission metadata block.
func (e *Engine) GenerateSubmissionPayload(formID, clientType string, data map[string]any) (map[string]any, error) {
	meta, ok := e.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
	}
	payload := e.CalculateDerivedFields(formID, clientType, data)
	if e.sanitizer != nil {
		for _, field := range meta.Fields {
			if model.FamilyOf(field.Type) != model.FamilyString {
				continue
			}
			if text, ok := payload[field.Key()].(string); ok {
				payload[field.Key()] = e.sanitizer.Sanitize(text)
			}
		}
	}
	payload[MetadataKey] = map[string]any{
		"formId":      formID,
		"formVersion": meta.Version,
		"clientType":  clientType,
		"submittedAt": e.now().UTC().Format(time.RFC3339),
	}
	return payload, nil
}

// SubmitForm checks prerequisites, validates data, posts the payload and,
// on success, tracks the returned record id and notifies dependent forms.
// Prerequisites are checked first so that missing forms are reported as
// such rather than as cross-form validation errors.
func (e *Engine) SubmitForm(ctx context.Context, formID, clientType, userID string, data map[string]any, validateDependencies bool) SubmitResult {
	meta, ok := e.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return failed(fmt.Errorf("%w: %s", ErrFormNotFound, formID))
	}

	if prerequisites := e.resolver.CheckPrerequisites(formID, clientType); !prerequisites.Valid {
		result := failed(ErrMissingPrerequisites)
		result.MissingPrerequisites = prerequisites.MissingPrerequisites
		e.logger.Info("engine: submission blocked by prerequisites", "form", formID, "missing", prerequisites.MissingPrerequisites)
		return result
	}

	outcome := e.ValidateForm(formID, clientType, data, validateDependencies)
	if !outcome.Valid {
		result := failed(ErrValidation)
		result.Validation = outcome
		return result
	}

	payload, err := e.GenerateSubmissionPayload(formID, clientType, data)
	if err != nil {
		return failed(err)
	}
	response, err := e.submitter.Post(ctx, meta.SubmitEndpoint, payload)
	if err != nil {
		e.logger.Error("engine: submission failed", "form", formID, "endpoint", meta.SubmitEndpoint, "error", err)
		return failed(fmt.Errorf("engine: submit %s: %w", formID, err))
	}

	e.record(formID, clientType, userID, meta, response, model.EventSubmission)
	if err := e.resolver.NotifyDependentForms(formID, clientType, userID); err != nil {
		e.logger.Error("engine: notifying dependent forms failed", "form", formID, "error", err)
	}
	e.logger.Info("engine: form submitted", "form", formID, "client_type", clientType, "id", response["id"])
	return SubmitResult{Success: true, Data: response, Validation: outcome}
}

// LoadFormData fetches recordID through the form's fetch endpoint and
// mirrors the returned field values into the tracker. A response without an
// id is attributed to recordID.
func (e *Engine) LoadFormData(ctx context.Context, formID, recordID, clientType, userID string) (map[string]any, error) {
	meta, ok := e.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
	}
	endpoint := strings.ReplaceAll(meta.FetchDataEndpoint, idPlaceholder, recordID)
	data, err := e.submitter.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("engine: load %s/%s: %w", formID, recordID, err)
	}
	data = maps.Clone(data)
	if data == nil {
		data = make(map[string]any)
	}
	if expr.IsEmpty(data["id"]) {
		data["id"] = recordID
	}
	e.record(formID, clientType, userID, meta, data, model.EventLoad)
	return data, nil
}

// record mirrors the form fields found in data into the tracker, writing the
// id last so that completion is only visible once the values are in place.
func (e *Engine) record(formID, clientType, userID string, meta model.FormMetadata, data map[string]any, event model.ChangeEventType) {
	var errs []error
	apply := func(key string, value any) {
		if err := e.tracker.Apply(tracker.Change{
			FormID:      formID,
			ParameterID: key,
			Value:       value,
			ClientType:  clientType,
			UserID:      userID,
			EventType:   event,
		}); err != nil {
			errs = append(errs, err)
		}
	}
	for _, field := range meta.Fields {
		if field.Key() == "id" {
			continue
		}
		if value, ok := lookup(data, field); ok {
			apply(field.Key(), value)
		}
	}
	if id, ok := data["id"]; ok && !expr.IsEmpty(id) {
		apply("id", id)
	}
	if err := errors.Join(errs...); err != nil {
		e.logger.Error("engine: recording form values failed", "form", formID, "event", event, "error", err)
	}
}

// simulatedSubmitter acknowledges every post by echoing the payload with a
// generated id, and returns empty records.
type simulatedSubmitter struct{}

func (simulatedSubmitter) Post(ctx context.Context, _ string, payload map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := maps.Clone(payload)
	if expr.IsEmpty(out["id"]) {
		out["id"] = uuid.NewString()
	}
	return out, nil
}

func (simulatedSubmitter) Get(ctx context.Context, _ string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}
