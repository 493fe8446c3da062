package engine

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/tracker"
)

// InitializeFormState seeds every visible field of formID with its default
// value, or the zero value of its type, and mirrors the seeds into the
// tracker. Propagation errors met while seeding are joined into the returned
// error; the state is still returned.
func (e *Engine) InitializeFormState(formID, clientType, userID string) (map[string]any, error) {
	config, ok := e.GenerateFormConfig(formID, clientType, userID, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, formID)
	}

	state := make(map[string]any, len(config.Fields))
	var errs []error
	for _, field := range config.Fields {
		value := field.DefaultValue
		if value == nil {
			value = model.ZeroValue(field.Type)
		}
		state[field.Key()] = value
		err := e.tracker.Apply(tracker.Change{
			FormID:      formID,
			ParameterID: field.Key(),
			Value:       value,
			ClientType:  clientType,
			UserID:      userID,
			EventType:   model.EventInitialization,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	e.logger.Debug("engine: form state initialized", "form", formID, "client_type", clientType, "fields", len(state))
	return state, errors.Join(errs...)
}

// CalculateDerivedFields evaluates every calculated field of formID in
// declaration order against data merged with earlier results, and writes
// each result into the returned copy and the tracker. A failing formula
// leaves its field untouched.
func (e *Engine) CalculateDerivedFields(formID, clientType string, data map[string]any) map[string]any {
	out := maps.Clone(data)
	if out == nil {
		out = make(map[string]any)
	}
	meta, ok := e.registry.ClientSpecificMetadata(formID, clientType)
	if !ok {
		return out
	}

	for _, field := range meta.Fields {
		if !field.IsDerived() || strings.TrimSpace(field.CalculationFormula) == "" {
			continue
		}
		vars := maps.Clone(out)
		vars["clientType"] = clientType
		value, err := e.evaluator.Evaluate(field.CalculationFormula, vars)
		if err != nil {
			e.expressionFailed("calculation", formID, field.Key(), field.CalculationFormula, err)
			continue
		}
		out[field.Key()] = value
		err = e.tracker.Apply(tracker.Change{
			FormID:      formID,
			ParameterID: field.Key(),
			Value:       value,
			ClientType:  clientType,
			EventType:   model.EventCalculation,
		})
		if err != nil {
			e.logger.Error("engine: calculated value propagation failed", "form", formID, "field", field.Key(), "error", err)
		}
	}
	return out
}
