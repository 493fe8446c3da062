package engine

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/resolver"
	"github.com/goliatone/go-formengine/pkg/tracker"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

var (
	// ErrFormNotFound reports an operation on an unregistered form.
	ErrFormNotFound = errors.New("engine: form not found")
	// ErrMissingPrerequisites reports a submission blocked by incomplete
	// prerequisite forms.
	ErrMissingPrerequisites = errors.New("Missing required prerequisites")
	// ErrValidation reports a submission rejected by validation.
	ErrValidation = errors.New("engine: validation failed")
)

// Engine is the facade the presentation layer talks to: it resolves the
// effective configuration of a form for a client type, seeds and tracks
// field values, validates, computes calculated fields and submits.
type Engine struct {
	registry *registry.Registry
	tracker  *tracker.Tracker
	resolver *resolver.Resolver

	logger     *slog.Logger
	evaluator  *expr.Evaluator
	visibility visibility.Evaluator
	checker    *validation.Checker
	rules      *validation.Store
	submitter  Submitter
	sanitizer  Sanitizer
	metrics    metrics.Recorder
	now        func() time.Time
}

// New constructs an Engine over its collaborators.
func New(reg *registry.Registry, tr *tracker.Tracker, res *resolver.Resolver, options ...Option) *Engine {
	e := &Engine{
		registry:   reg,
		tracker:    tr,
		resolver:   res,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		evaluator:  expr.New(),
		visibility: visibility.Default,
		metrics:    metrics.Nop{},
		now:        time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.checker == nil {
		e.checker = validation.New(validation.WithEvaluator(e.evaluator), validation.WithLogger(e.logger))
	}
	if e.submitter == nil {
		e.submitter = simulatedSubmitter{}
	}
	return e
}

// Registry returns the registry the engine reads metadata from.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Tracker returns the tracker holding live values.
func (e *Engine) Tracker() *tracker.Tracker { return e.tracker }

// Resolver returns the dependency resolver.
func (e *Engine) Resolver() *resolver.Resolver { return e.resolver }

// ProcessFieldChange records a user edit. Propagation through parameter
// dependencies is the whole effect; the returned error only reports cycles
// or depth violations met while propagating.
func (e *Engine) ProcessFieldChange(formID, fieldName string, value any, clientType, userID string) error {
	return e.tracker.SetParameterValue(formID, fieldName, value, clientType, userID)
}

// EvaluateExpression evaluates a metadata expression against context. Only
// the names in context resolve.
func (e *Engine) EvaluateExpression(expression string, context map[string]any) (any, error) {
	return e.evaluator.Evaluate(expression, context)
}

func (e *Engine) expressionFailed(site, formID, field, expression string, err error) {
	e.logger.Warn("engine: "+site+" expression failed",
		"form", formID, "field", field, "expression", expression, "error", err)
	e.metrics.ExpressionFailed(site)
}

func isDirective(action string, names ...string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(action))
	for _, name := range names {
		if trimmed == name {
			return true
		}
	}
	return false
}
