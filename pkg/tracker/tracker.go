package tracker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/model"
)

// Tracker owns the live value of every (form, parameter) pair, the
// parameter dependencies between them and the append-only audit log.
//
// Every write runs a propagation pass under a single lock: dependent
// parameters are written depth-first in dependency registration order.
// Subscribers are notified after the lock is released, on the calling
// goroutine, in subscription order.
type Tracker struct {
	mu           sync.Mutex
	values       map[model.ParameterRef]any
	dependencies []model.ParameterDependency
	bySource     map[model.ParameterRef][]int
	byTarget     map[model.ParameterRef][]int
	audit        []model.ParameterAuditLogEntry

	subsMu        sync.RWMutex
	subscriptions []*subscription

	logger          *slog.Logger
	evaluator       *expr.Evaluator
	metrics         metrics.Recorder
	maxDepth        int
	rejectAmbiguous bool
	now             func() time.Time
	newID           func() string
}

// New constructs an empty Tracker.
func New(options ...Option) *Tracker {
	t := &Tracker{
		values:    make(map[model.ParameterRef]any),
		bySource:  make(map[model.ParameterRef][]int),
		byTarget:  make(map[model.ParameterRef][]int),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		evaluator: expr.New(),
		metrics:   metrics.Nop{},
		maxDepth:  DefaultMaxDepth,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Change is one direct write into the tracker.
type Change struct {
	FormID      string
	ParameterID string
	Value       any
	ClientType  string
	UserID      string
	// EventType defaults to value_change.
	EventType model.ChangeEventType
	// Source and DependencyID attribute a write made on behalf of another
	// parameter, such as a name-matched propagation between forms.
	Source       *model.ParameterRef
	DependencyID string
}

// SetParameterValue records a user edit and propagates it through every
// applicable dependency. Expression failures skip the failing edge and are
// only logged. The returned error joins any cycle or depth violations met
// during the pass; the write itself and every other edge are still applied.
func (t *Tracker) SetParameterValue(formID, parameterID string, value any, clientType, userID string) error {
	return t.Apply(Change{
		FormID:      formID,
		ParameterID: parameterID,
		Value:       value,
		ClientType:  clientType,
		UserID:      userID,
		EventType:   model.EventValueChange,
	})
}

// Apply records change with its event type and propagates it.
func (t *Tracker) Apply(change Change) error {
	if change.EventType == "" {
		change.EventType = model.EventValueChange
	}
	ref := model.ParameterRef{FormID: change.FormID, ParameterID: change.ParameterID}

	t.mu.Lock()
	p := &pass{clientType: change.ClientType, userID: change.UserID}
	previous := t.values[ref]
	t.track(p, model.ParameterChangeEvent{
		FormID:        change.FormID,
		ParameterID:   change.ParameterID,
		EventType:     change.EventType,
		PreviousValue: previous,
		NewValue:      change.Value,
		Timestamp:     t.now(),
		UserID:        change.UserID,
		ClientType:    change.ClientType,
		Source:        change.Source,
		DependencyID:  change.DependencyID,
	})
	t.audit = append(t.audit, p.entries...)
	t.mu.Unlock()

	t.notify(p.events)
	return errors.Join(p.errs...)
}

// Propagate re-applies dep using the current value of its source parameter,
// then cascades from the target as a normal pass. It reports false when the
// source is unset or the dependency does not apply.
func (t *Tracker) Propagate(dep model.ParameterDependency, clientType, userID string) (bool, error) {
	source := dep.Source()

	t.mu.Lock()
	value, ok := t.values[source]
	if !ok {
		t.mu.Unlock()
		return false, nil
	}
	p := &pass{clientType: clientType, userID: userID, chain: []model.ParameterRef{source}}
	trigger := model.ParameterChangeEvent{
		FormID:        source.FormID,
		ParameterID:   source.ParameterID,
		PreviousValue: value,
		NewValue:      value,
	}
	target, next, applies := t.evaluateEdge(p, dep, trigger)
	if applies {
		t.metrics.PropagationApplied(string(dep.DependencyType))
		t.track(p, model.ParameterChangeEvent{
			FormID:        target.FormID,
			ParameterID:   target.ParameterID,
			EventType:     model.EventPropagation,
			PreviousValue: t.values[target],
			NewValue:      next,
			Timestamp:     t.now(),
			UserID:        userID,
			ClientType:    clientType,
			Source:        &source,
			DependencyID:  dep.ID,
		})
		t.audit = append(t.audit, p.entries...)
	}
	t.mu.Unlock()

	t.notify(p.events)
	return applies, errors.Join(p.errs...)
}

// pass carries the state of one propagation pass.
type pass struct {
	clientType string
	userID     string
	chain      []model.ParameterRef
	entries    []model.ParameterAuditLogEntry
	events     []model.ParameterChangeEvent
	errs       []error
}

func (p *pass) onChain(ref model.ParameterRef) bool {
	for _, candidate := range p.chain {
		if candidate == ref {
			return true
		}
	}
	return false
}

// track writes event's value, appends its audit entry, and recurses into
// the dependencies sourced at the written parameter. It returns every
// parameter written below this one.
func (t *Tracker) track(p *pass, event model.ParameterChangeEvent) []model.ParameterRef {
	ref := event.Ref()
	t.values[ref] = event.NewValue
	t.metrics.ParameterChanged(event.FormID, string(event.EventType))

	entryIdx := len(p.entries)
	p.entries = append(p.entries, model.ParameterAuditLogEntry{ID: t.newID(), ParameterChangeEvent: event})
	p.events = append(p.events, event)
	p.chain = append(p.chain, ref)

	var affected []model.ParameterRef
	for _, depIdx := range t.bySource[ref] {
		dep := t.dependencies[depIdx]
		target, value, ok := t.evaluateEdge(p, dep, event)
		if !ok {
			continue
		}
		t.logger.Debug("tracker: propagating",
			"source", ref.String(), "target", target.String(), "dependency", dep.ID)
		t.metrics.PropagationApplied(string(dep.DependencyType))

		source := ref
		child := model.ParameterChangeEvent{
			FormID:        target.FormID,
			ParameterID:   target.ParameterID,
			EventType:     model.EventPropagation,
			PreviousValue: t.values[target],
			NewValue:      value,
			Timestamp:     t.now(),
			UserID:        p.userID,
			ClientType:    p.clientType,
			Source:        &source,
			DependencyID:  dep.ID,
		}
		affected = append(affected, target)
		affected = append(affected, t.track(p, child)...)
	}

	p.chain = p.chain[:len(p.chain)-1]
	p.entries[entryIdx].AffectedParameters = uniqueRefs(affected)
	return affected
}

// evaluateEdge decides whether dep applies to event and computes the value
// it writes.
func (t *Tracker) evaluateEdge(p *pass, dep model.ParameterDependency, event model.ParameterChangeEvent) (model.ParameterRef, any, bool) {
	target := dep.Target()
	if !model.ClientTypeAllowed(dep.ClientTypes, p.clientType) {
		t.metrics.PropagationSkipped("client_type")
		return target, nil, false
	}

	vars := map[string]any{
		"sourceValue":   event.NewValue,
		"value":         event.NewValue,
		"previousValue": event.PreviousValue,
		"targetValue":   t.values[target],
		"clientType":    p.clientType,
		"userId":        p.userID,
	}
	if dep.Condition != "" {
		ok, err := t.evaluator.EvaluateBool(dep.Condition, vars)
		if err != nil {
			t.expressionFailed("condition", dep, dep.Condition, err)
			return target, nil, false
		}
		if !ok {
			t.metrics.PropagationSkipped("condition")
			return target, nil, false
		}
	}

	if p.onChain(target) {
		err := fmt.Errorf("%w: %s -> %s via %s", ErrPropagationCycle, event.Ref(), target, dep.ID)
		t.logger.Error("tracker: propagation cycle detected",
			"source", event.Ref().String(), "target", target.String(), "dependency", dep.ID)
		t.metrics.PropagationSkipped("cycle")
		p.errs = append(p.errs, err)
		return target, nil, false
	}
	if len(p.chain) >= t.maxDepth {
		err := fmt.Errorf("%w: %d at %s -> %s", ErrMaxDepth, t.maxDepth, event.Ref(), target)
		t.logger.Error("tracker: propagation depth exceeded",
			"source", event.Ref().String(), "target", target.String(), "max_depth", t.maxDepth)
		t.metrics.PropagationSkipped("max_depth")
		p.errs = append(p.errs, err)
		return target, nil, false
	}

	value := event.NewValue
	if dep.TransformationFunction != "" {
		transformed, err := t.evaluator.Evaluate(dep.TransformationFunction, vars)
		if err != nil {
			t.expressionFailed("transformation", dep, dep.TransformationFunction, err)
			return target, nil, false
		}
		value = transformed
	}
	return target, value, true
}

func (t *Tracker) expressionFailed(site string, dep model.ParameterDependency, expression string, err error) {
	t.logger.Warn("tracker: dependency "+site+" failed",
		"form", dep.SourceFormID,
		"field", dep.SourceParameterID,
		"target", dep.Target().String(),
		"expression", expression,
		"error", err)
	t.metrics.ExpressionFailed(site)
	t.metrics.PropagationSkipped("expression")
}

// GetParameterValue returns the tracked value. ok is false until the first
// write.
func (t *Tracker) GetParameterValue(formID, parameterID string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.values[model.ParameterRef{FormID: formID, ParameterID: parameterID}]
	return value, ok
}

// FormValues returns a snapshot of every tracked value of a form keyed by
// parameter id.
func (t *Tracker) FormValues(formID string) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]any)
	for ref, value := range t.values {
		if ref.FormID == formID {
			out[ref.ParameterID] = value
		}
	}
	return out
}

func uniqueRefs(refs []model.ParameterRef) []model.ParameterRef {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[model.ParameterRef]struct{}, len(refs))
	out := make([]model.ParameterRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
