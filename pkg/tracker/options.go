package tracker

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
)

// DefaultMaxDepth bounds the dependency chain length of one propagation
// pass.
const DefaultMaxDepth = 64

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for expression failures, cycles and
// propagation edges.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithEvaluator sets the expression evaluator for dependency conditions and
// transformations.
func WithEvaluator(evaluator *expr.Evaluator) Option {
	return func(t *Tracker) {
		if evaluator != nil {
			t.evaluator = evaluator
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(t *Tracker) {
		t.metrics = metrics.OrNop(recorder)
	}
}

// WithMaxDepth bounds the dependency chain of one pass. Values below one
// keep the default.
func WithMaxDepth(depth int) Option {
	return func(t *Tracker) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithRejectAmbiguousTargets makes RegisterDependency fail when a second
// dependency targets an already targeted parameter.
func WithRejectAmbiguousTargets(reject bool) Option {
	return func(t *Tracker) {
		t.rejectAmbiguous = reject
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDGenerator overrides the generator used for audit, dependency and
// subscription ids.
func WithIDGenerator(next func() string) Option {
	return func(t *Tracker) {
		if next != nil {
			t.newID = next
		}
	}
}
