package resolver

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// DefaultCacheExpiration is how long resolved dependencies and cross-form
// validation results stay cached.
const DefaultCacheExpiration = 5 * time.Minute

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEvaluator sets the expression evaluator used for mapping
// transformations, propagation hooks and dependency conditions.
func WithEvaluator(evaluator *expr.Evaluator) Option {
	return func(r *Resolver) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(r *Resolver) {
		r.metrics = metrics.OrNop(recorder)
	}
}

// WithCacheExpiration sets the cache TTL. Non-positive values keep the
// default.
func WithCacheExpiration(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithStrict makes dependency registration fail on unknown forms or fields
// instead of logging a warning.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithChecker sets the field checker used by ValidateField.
func WithChecker(checker *validation.Checker) Option {
	return func(r *Resolver) {
		if checker != nil {
			r.checker = checker
		}
	}
}

// WithRuleStore adds runtime-registered rules to ValidateField.
func WithRuleStore(store *validation.Store) Option {
	return func(r *Resolver) {
		r.rules = store
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}
