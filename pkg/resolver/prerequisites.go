package resolver

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/model"
)

// completionParameter is the tracked parameter whose presence marks a form
// as submitted.
const completionParameter = "id"

// PrerequisiteResult lists the required prerequisite forms not completed
// yet.
type PrerequisiteResult struct {
	Valid                bool     `json:"valid"`
	MissingPrerequisites []string `json:"missingPrerequisites,omitempty"`
}

// Completed reports whether formID has a tracked, non-empty id.
func (r *Resolver) Completed(formID string) bool {
	value, ok := r.tracker.GetParameterValue(formID, completionParameter)
	return ok && !expr.IsEmpty(value)
}

// CheckPrerequisites reports the required prerequisite dependencies of
// formID whose forms have not been completed. A dependency with a condition
// only counts while the condition holds for the form's tracked values.
func (r *Resolver) CheckPrerequisites(formID, clientType string) PrerequisiteResult {
	result := PrerequisiteResult{Valid: true}
	for _, dep := range r.ResolveDependencies(formID, clientType, "", true) {
		if dep.Type != model.FormDependencyPrerequisite || !dep.Required {
			continue
		}
		if !r.conditionHolds(formID, clientType, dep) {
			continue
		}
		if r.Completed(dep.FormID) {
			continue
		}
		result.Valid = false
		result.MissingPrerequisites = append(result.MissingPrerequisites, r.describe(dep))
	}
	return result
}

func (r *Resolver) conditionHolds(formID, clientType string, dep model.FormDependency) bool {
	if dep.Condition == "" {
		return true
	}
	vars := r.tracker.FormValues(formID)
	vars["clientType"] = clientType
	vars["formId"] = formID
	ok, err := r.evaluator.EvaluateBool(dep.Condition, vars)
	if err != nil {
		r.logger.Warn("resolver: dependency condition failed",
			"form", formID, "field", dep.FormID, "expression", dep.Condition, "error", err)
		r.metrics.ExpressionFailed("condition")
		return false
	}
	return ok
}

func (r *Resolver) describe(dep model.FormDependency) string {
	if dep.Description != "" {
		return dep.Description
	}
	if entry, ok := r.registry.Entry(dep.FormID); ok && entry.Title != "" {
		return fmt.Sprintf("%s (%s) must be completed first", entry.Title, dep.FormID)
	}
	return fmt.Sprintf("%s must be completed first", dep.FormID)
}

// WorkflowStatus is the position of a form in a workflow.
type WorkflowStatus string

const (
	StatusCompleted WorkflowStatus = "completed"
	StatusCurrent   WorkflowStatus = "current"
	StatusPending   WorkflowStatus = "pending"
)

// WorkflowStep describes one form in a workflow path.
type WorkflowStep struct {
	FormID   string         `json:"formId"`
	Status   WorkflowStatus `json:"status"`
	Optional bool           `json:"optional"`
}

// GetWorkflowPath orders formIDs into workflow steps. Completed forms have a
// tracked id. A form is optional when no other listed form requires it as
// a prerequisite. The first pending form whose prerequisites are met, or
// else the first pending form, becomes current.
func (r *Resolver) GetWorkflowPath(formIDs []string, clientType string) []WorkflowStep {
	required := make(map[string]bool)
	for _, id := range formIDs {
		for _, dep := range r.ResolveDependencies(id, clientType, "", true) {
			if dep.Type == model.FormDependencyPrerequisite && dep.Required && dep.FormID != id {
				required[dep.FormID] = true
			}
		}
	}

	steps := make([]WorkflowStep, 0, len(formIDs))
	current := -1
	firstPending := -1
	for idx, id := range formIDs {
		step := WorkflowStep{FormID: id, Status: StatusPending, Optional: !required[id]}
		if r.Completed(id) {
			step.Status = StatusCompleted
		} else {
			if firstPending < 0 {
				firstPending = idx
			}
			if current < 0 && r.CheckPrerequisites(id, clientType).Valid {
				current = idx
			}
		}
		steps = append(steps, step)
	}
	if current < 0 {
		current = firstPending
	}
	if current >= 0 {
		steps[current].Status = StatusCurrent
	}
	return steps
}
