package resolver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/tracker"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// ErrUnknownReference reports a dependency naming a form or field that is
// not registered. Only returned in strict mode.
var ErrUnknownReference = errors.New("resolver: unknown reference")

// Resolver answers cross-form questions: which dependencies apply to a
// client, whether prerequisites are met, how data flows between forms and
// whether forms agree with each other.
type Resolver struct {
	registry *registry.Registry
	tracker  *tracker.Tracker

	mu       sync.RWMutex
	formDeps map[string][]model.FormDependency
	ttl      time.Duration

	dependencyCache *cache[[]model.FormDependency]
	validationCache *cache[validation.Result]

	logger    *slog.Logger
	evaluator *expr.Evaluator
	metrics   metrics.Recorder
	checker   *validation.Checker
	rules     *validation.Store
	strict    bool
	now       func() time.Time
}

// New constructs a Resolver over a registry and a tracker. The resolver
// subscribes to every tracked change to keep cross-form validation results
// coherent with the values they were computed from.
func New(reg *registry.Registry, tr *tracker.Tracker, options ...Option) *Resolver {
	r := &Resolver{
		registry:        reg,
		tracker:         tr,
		formDeps:        make(map[string][]model.FormDependency),
		ttl:             DefaultCacheExpiration,
		dependencyCache: newCache[[]model.FormDependency](),
		validationCache: newCache[validation.Result](),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		evaluator:       expr.New(),
		metrics:         metrics.Nop{},
		now:             time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.checker == nil {
		r.checker = validation.New(validation.WithEvaluator(r.evaluator), validation.WithLogger(r.logger))
	}
	tr.Subscribe("", "", func(event model.ParameterChangeEvent) {
		if removed := r.validationCache.invalidate(event.FormID); removed > 0 {
			r.logger.Debug("resolver: validation cache invalidated", "form", event.FormID, "entries", removed)
		}
	}, nil)
	return r
}

// SetCacheExpiration changes the TTL for subsequent lookups.
func (r *Resolver) SetCacheExpiration(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.ttl = ttl
	r.mu.Unlock()
}

func (r *Resolver) cacheTTL() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ttl
}

// InvalidateForm drops every cached result computed from formID.
func (r *Resolver) InvalidateForm(formID string) {
	deps := r.dependencyCache.invalidate(formID)
	results := r.validationCache.invalidate(formID)
	r.logger.Debug("resolver: cache invalidated", "form", formID, "dependencies", deps, "validations", results)
}

// ClearCache drops every cached result.
func (r *Resolver) ClearCache() {
	r.dependencyCache.clear()
	r.validationCache.clear()
}

// RegisterFormDependency adds a form-level dependency of formID on
// dep.FormID on top of the dependencies declared in metadata. Unknown forms
// are logged, or rejected in strict mode.
func (r *Resolver) RegisterFormDependency(formID string, dep model.FormDependency) error {
	var missing []error
	for _, id := range []string{formID, dep.FormID} {
		if !r.registry.Has(id) {
			missing = append(missing, fmt.Errorf("%w: form %q", ErrUnknownReference, id))
		}
	}
	if err := r.checkReferences("form dependency", formID, missing); err != nil {
		return err
	}

	r.mu.Lock()
	r.formDeps[formID] = append(r.formDeps[formID], dep)
	r.mu.Unlock()
	r.dependencyCache.invalidate(formID)
	return nil
}

// RegisterDependency validates the references of a parameter dependency
// against the registry and hands it to the tracker.
func (r *Resolver) RegisterDependency(dep model.ParameterDependency) (model.ParameterDependency, error) {
	var missing []error
	for _, ref := range []model.ParameterRef{dep.Source(), dep.Target()} {
		meta, ok := r.registry.Metadata(ref.FormID)
		if !ok {
			missing = append(missing, fmt.Errorf("%w: form %q", ErrUnknownReference, ref.FormID))
			continue
		}
		if _, ok := meta.Field(ref.ParameterID); !ok && ref.ParameterID != completionParameter {
			missing = append(missing, fmt.Errorf("%w: field %s", ErrUnknownReference, ref))
		}
	}
	if err := r.checkReferences("parameter dependency", dep.SourceFormID, missing); err != nil {
		return model.ParameterDependency{}, err
	}
	registered, err := r.tracker.RegisterDependency(dep)
	if err != nil {
		return model.ParameterDependency{}, fmt.Errorf("resolver: register dependency: %w", err)
	}
	return registered, nil
}

func (r *Resolver) checkReferences(kind, formID string, missing []error) error {
	if len(missing) == 0 {
		return nil
	}
	if r.strict {
		return errors.Join(missing...)
	}
	for _, err := range missing {
		r.logger.Warn("resolver: "+kind+" references unknown target", "form", formID, "error", err)
	}
	return nil
}

// ResolveDependencies returns the dependencies of formID that apply to
// clientType: declared metadata dependencies (after client overrides)
// followed by registered ones. Results are cached per form, client type and
// user for the cache TTL.
func (r *Resolver) ResolveDependencies(formID, clientType, userID string, useCache bool) []model.FormDependency {
	key := cacheKey(formID, clientType, userID)
	now := r.now()
	if useCache {
		if cached, ok := r.dependencyCache.get(key, now, r.cacheTTL()); ok {
			r.metrics.CacheLookup("dependencies", true)
			return append([]model.FormDependency(nil), cached...)
		}
		r.metrics.CacheLookup("dependencies", false)
	}

	var declared []model.FormDependency
	if meta, ok := r.registry.ClientSpecificMetadata(formID, clientType); ok {
		declared = append(declared, meta.Dependencies...)
	}
	r.mu.RLock()
	declared = append(declared, r.formDeps[formID]...)
	r.mu.RUnlock()

	var out []model.FormDependency
	for _, dep := range declared {
		if model.ClientTypeAllowed(dep.ClientTypes, clientType) {
			out = append(out, dep)
		}
	}
	r.dependencyCache.put(key, out, now, formID)
	return append([]model.FormDependency(nil), out...)
}
