package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/goliatone/go-formengine/internal/config"
	"github.com/goliatone/go-formengine/internal/logging"
	"github.com/goliatone/go-formengine/pkg/catalog"
	"github.com/goliatone/go-formengine/pkg/endpoint"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/expr"
	"github.com/goliatone/go-formengine/pkg/metrics"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/resolver"
	"github.com/goliatone/go-formengine/pkg/tracker"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// application is the per-process object graph. It is the only place where
// the registry, tracker, resolver and engine are constructed.
type application struct {
	cfg        config.Config
	logger     *slog.Logger
	prometheus *metrics.Prometheus
	registry   *registry.Registry
	tracker    *tracker.Tracker
	resolver   *resolver.Resolver
	engine     *engine.Engine
	rules      *validation.Store
}

func newApplication(cfg config.Config, stderr io.Writer, submitter engine.Submitter) (*application, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, logger: logger, rules: validation.NewStore()}
	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		app.prometheus = metrics.NewPrometheus("formengine")
		recorder = app.prometheus
	}

	evaluator := expr.New()
	checker := validation.New(validation.WithEvaluator(evaluator), validation.WithLogger(logger))
	app.registry = registry.New(
		registry.WithLogger(logger),
		registry.WithStrict(cfg.Registry.Strict),
	)
	app.tracker = tracker.New(
		tracker.WithLogger(logger),
		tracker.WithEvaluator(evaluator),
		tracker.WithMetrics(recorder),
		tracker.WithMaxDepth(cfg.Propagation.MaxDepth),
	)
	app.resolver = resolver.New(app.registry, app.tracker,
		resolver.WithLogger(logger),
		resolver.WithEvaluator(evaluator),
		resolver.WithMetrics(recorder),
		resolver.WithCacheExpiration(cfg.Cache.TTL),
		resolver.WithStrict(cfg.Registry.Strict),
		resolver.WithChecker(checker),
		resolver.WithRuleStore(app.rules),
	)

	options := []engine.Option{
		engine.WithLogger(logger),
		engine.WithEvaluator(evaluator),
		engine.WithChecker(checker),
		engine.WithRuleStore(app.rules),
		engine.WithMetrics(recorder),
	}
	if submitter == nil && cfg.Submit.BaseURL != "" {
		submitter = endpoint.New(
			endpoint.WithBaseURL(cfg.Submit.BaseURL),
			endpoint.WithTimeout(cfg.Submit.Timeout),
			endpoint.WithLogger(logger),
		)
	}
	if submitter != nil {
		options = append(options, engine.WithSubmitter(submitter))
	}
	if cfg.Payload.Sanitize {
		options = append(options, engine.WithSanitizer(engine.StrictSanitizer()))
	}
	app.engine = engine.New(app.registry, app.tracker, app.resolver, options...)

	if cfg.Catalog.Dir != "" {
		if err := app.loadCatalog(cfg.Catalog.Dir); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func (a *application) loadCatalog(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("catalog: %s is not a directory", dir)
	}
	cat, err := catalog.LoadFS(os.DirFS(dir))
	if err != nil {
		return err
	}
	if err := cat.Register(a.registry); err != nil {
		return err
	}
	for _, dep := range cat.Dependencies {
		if _, err := a.resolver.RegisterDependency(dep); err != nil {
			return err
		}
	}
	for _, rule := range cat.Rules {
		if _, err := a.rules.Add(rule); err != nil {
			return err
		}
	}
	a.logger.Debug("catalog loaded", "dir", dir, "forms", len(cat.Forms),
		"dependencies", len(cat.Dependencies), "rules", len(cat.Rules))
	return nil
}

// pruneAudit drops audit entries older than the configured retention.
func (a *application) pruneAudit(now time.Time) {
	removed := a.tracker.ClearAuditLogsOlderThan(now.Add(-a.cfg.Audit.Retention))
	if removed > 0 {
		a.logger.Debug("audit entries pruned", "removed", removed)
	}
}
