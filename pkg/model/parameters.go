package model

import "time"

// ParameterDependencyType enumerates how a parameter drives another one.
type ParameterDependencyType string

const (
	ParameterDependencyDirect      ParameterDependencyType = "direct"
	ParameterDependencyDerived     ParameterDependencyType = "derived"
	ParameterDependencyConditional ParameterDependencyType = "conditional"
	ParameterDependencyValidation  ParameterDependencyType = "validation"
	ParameterDependencyWorkflow    ParameterDependencyType = "workflow"
)

// ParameterRef addresses one tracked (form, field) pair.
type ParameterRef struct {
	FormID      string `json:"formId" yaml:"formId"`
	ParameterID string `json:"parameterId" yaml:"parameterId"`
}

func (r ParameterRef) String() string {
	return r.FormID + "." + r.ParameterID
}

// ParameterDependency links a source parameter to a target parameter.
// TransformationFunction and Condition are expressions evaluated with
// `sourceValue`, `previousValue`, `targetValue`, `clientType` and `userId`
// bound.
type ParameterDependency struct {
	ID                     string                  `json:"id" yaml:"id"`
	SourceFormID           string                  `json:"sourceFormId" yaml:"sourceFormId"`
	SourceParameterID      string                  `json:"sourceParameterId" yaml:"sourceParameterId"`
	TargetFormID           string                  `json:"targetFormId" yaml:"targetFormId"`
	TargetParameterID      string                  `json:"targetParameterId" yaml:"targetParameterId"`
	DependencyType         ParameterDependencyType `json:"dependencyType" yaml:"dependencyType"`
	TransformationFunction string                  `json:"transformationFunction,omitempty" yaml:"transformationFunction,omitempty"`
	Condition              string                  `json:"condition,omitempty" yaml:"condition,omitempty"`
	ClientTypes            []string                `json:"clientTypes,omitempty" yaml:"clientTypes,omitempty"`
	Description            string                  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Source returns the source parameter reference.
func (d ParameterDependency) Source() ParameterRef {
	return ParameterRef{FormID: d.SourceFormID, ParameterID: d.SourceParameterID}
}

// Target returns the target parameter reference.
func (d ParameterDependency) Target() ParameterRef {
	return ParameterRef{FormID: d.TargetFormID, ParameterID: d.TargetParameterID}
}

// ChangeEventType classifies why a tracked value changed.
type ChangeEventType string

const (
	EventValueChange    ChangeEventType = "value_change"
	EventPropagation    ChangeEventType = "propagation"
	EventInitialization ChangeEventType = "initialization"
	EventCalculation    ChangeEventType = "calculation"
	EventLoad           ChangeEventType = "load"
	EventSubmission     ChangeEventType = "submission"
)

// ParameterChangeEvent records one transition of a tracked value.
type ParameterChangeEvent struct {
	FormID        string          `json:"formId"`
	ParameterID   string          `json:"parameterId"`
	EventType     ChangeEventType `json:"eventType"`
	PreviousValue any             `json:"previousValue"`
	NewValue      any             `json:"newValue"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"userId,omitempty"`
	ClientType    string          `json:"clientType"`
	// Source is the parameter whose change caused this one through a
	// dependency. Nil for direct writes.
	Source       *ParameterRef `json:"source,omitempty"`
	DependencyID string        `json:"dependencyId,omitempty"`
}

// Ref returns the parameter the event changed.
func (e ParameterChangeEvent) Ref() ParameterRef {
	return ParameterRef{FormID: e.FormID, ParameterID: e.ParameterID}
}

// ParameterAuditLogEntry is the immutable audit record appended for every
// change event, listing every parameter the change affected transitively.
type ParameterAuditLogEntry struct {
	ID string `json:"id"`
	ParameterChangeEvent
	AffectedParameters []ParameterRef `json:"affectedParameters,omitempty"`
}
