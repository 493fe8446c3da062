package engine

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEvaluator sets the expression evaluator shared by field dependencies
// and calculated fields.
func WithEvaluator(evaluator *expr.Evaluator) Option {
	return func(e *Engine) {
		if evaluator != nil {
			e.evaluator = evaluator
		}
	}
}

// WithVisibilityEvaluator replaces the evaluator for section and field
// conditionals.
func WithVisibilityEvaluator(evaluator visibility.Evaluator) Option {
	return func(e *Engine) {
		if evaluator != nil {
			e.visibility = evaluator
		}
	}
}

// WithChecker sets the field checker used by ValidateForm.
func WithChecker(checker *validation.Checker) Option {
	return func(e *Engine) {
		if checker != nil {
			e.checker = checker
		}
	}
}

// WithRuleStore adds runtime-registered rules to ValidateForm.
func WithRuleStore(store *validation.Store) Option {
	return func(e *Engine) {
		e.rules = store
	}
}

// WithSubmitter injects the collaborator that talks to submit and fetch
// endpoints. Without one the engine simulates both calls.
func WithSubmitter(submitter Submitter) Option {
	return func(e *Engine) {
		if submitter != nil {
			e.submitter = submitter
		}
	}
}

// WithSanitizer strips markup from text values placed in submission
// payloads. A nil sanitizer leaves values untouched.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(e *Engine) {
		e.sanitizer = sanitizer
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = metrics.OrNop(recorder)
	}
}

// WithClock overrides the time source used for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
