package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formengine/pkg/model"
)

var (
	// ErrInvalidForm reports metadata that cannot be registered at all.
	ErrInvalidForm = errors.New("registry: invalid form")
	// ErrDanglingReference reports a form dependency naming an unregistered
	// form. Only returned in strict mode; otherwise it is logged.
	ErrDanglingReference = errors.New("registry: dangling form reference")
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrict makes Register reject forms whose dependencies reference forms
// that are not registered yet. RegisterAll also accepts references to forms
// of the same batch.
func WithStrict(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// WithDecorators appends decorators applied to every form before it is
// stored.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(r *Registry) {
		for _, decorator := range decorators {
			if decorator != nil {
				r.decorators = append(r.decorators, decorator)
			}
		}
	}
}

// Registry stores form metadata and catalogue entries by form id. Lookups
// never fail: misses return false or empty slices.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]model.FormEntry
	forms      map[string]model.FormMetadata
	order      []string
	logger     *slog.Logger
	strict     bool
	decorators []model.Decorator
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]model.FormEntry),
		forms:   make(map[string]model.FormMetadata),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register inserts or overwrites a form. Overwriting logs a warning and the
// last write wins; the form keeps its original position in All.
func (r *Registry) Register(entry model.FormEntry, meta model.FormMetadata) error {
	return r.register(entry, meta, nil)
}

// Registration pairs an entry with its metadata for RegisterAll.
type Registration struct {
	Entry    model.FormEntry
	Metadata model.FormMetadata
}

// RegisterAll registers forms as one batch: dependencies on other forms of
// the batch count as resolved whatever their order. Every form is attempted
// and the returned error joins the failures.
func (r *Registry) RegisterAll(forms ...Registration) error {
	batch := make(map[string]bool, len(forms))
	for _, form := range forms {
		if id := form.Metadata.ID; id != "" {
			batch[id] = true
		} else if form.Entry.ID != "" {
			batch[form.Entry.ID] = true
		}
	}
	var errs []error
	for _, form := range forms {
		if err := r.register(form.Entry, form.Metadata, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) register(entry model.FormEntry, meta model.FormMetadata, batch map[string]bool) error {
	if entry.ID == "" {
		entry.ID = meta.ID
	}
	if meta.ID == "" {
		meta.ID = entry.ID
	}
	if meta.ID == "" {
		return fmt.Errorf("%w: form id is required", ErrInvalidForm)
	}
	if entry.ID != meta.ID {
		return fmt.Errorf("%w: entry id %q does not match metadata id %q", ErrInvalidForm, entry.ID, meta.ID)
	}
	if entry.Module == "" {
		entry.Module = meta.Module
	}
	if entry.Title == "" {
		entry.Title = meta.Title
	}

	meta = cloneForm(meta)
	for _, decorator := range r.decorators {
		if err := decorator.Decorate(&meta); err != nil {
			return fmt.Errorf("registry: decorate form %q: %w", meta.ID, err)
		}
	}
	r.warnDuplicateFields(meta)

	r.mu.Lock()
	defer r.mu.Unlock()

	var dangling []error
	for _, dep := range meta.Dependencies {
		if dep.FormID == meta.ID {
			continue
		}
		if _, ok := r.forms[dep.FormID]; !ok && !batch[dep.FormID] {
			dangling = append(dangling, fmt.Errorf("%w: %s depends on %s", ErrDanglingReference, meta.ID, dep.FormID))
		}
	}
	if len(dangling) > 0 {
		if r.strict {
			return errors.Join(dangling...)
		}
		for _, err := range dangling {
			r.logger.Warn("registry: dangling form reference", "form", meta.ID, "error", err)
		}
	}

	if _, exists := r.forms[meta.ID]; exists {
		r.logger.Warn("registry: form overwritten", "form", meta.ID, "module", meta.Module)
	} else {
		r.order = append(r.order, meta.ID)
	}
	r.entries[meta.ID] = entry
	r.forms[meta.ID] = meta
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(entry model.FormEntry, meta model.FormMetadata) {
	if err := r.Register(entry, meta); err != nil {
		panic(err)
	}
}

func (r *Registry) warnDuplicateFields(meta model.FormMetadata) {
	seen := make(map[string]struct{}, len(meta.Fields))
	for _, field := range meta.Fields {
		key := field.Key()
		if _, ok := seen[key]; ok {
			r.logger.Warn("registry: duplicate field", "form", meta.ID, "field", key)
		}
		seen[key] = struct{}{}
	}
}

// Has reports whether a form is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.forms[id]
	return ok
}

// Metadata returns the base metadata for id.
func (r *Registry) Metadata(id string) (model.FormMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.forms[id]
	if !ok {
		return model.FormMetadata{}, false
	}
	return cloneForm(meta), true
}

// Entry returns the catalogue entry for id.
func (r *Registry) Entry(id string) (model.FormEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// All returns every entry in registration order.
func (r *Registry) All() []model.FormEntry {
	return r.filter(func(model.FormEntry) bool { return true })
}

// ByModule returns the entries of one module.
func (r *Registry) ByModule(module string) []model.FormEntry {
	return r.filter(func(entry model.FormEntry) bool { return entry.Module == module })
}

// ByClientType returns the entries offered to clientType.
func (r *Registry) ByClientType(clientType string) []model.FormEntry {
	return r.filter(func(entry model.FormEntry) bool { return entry.AppliesTo(clientType) })
}

func (r *Registry) filter(keep func(model.FormEntry) bool) []model.FormEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.FormEntry
	for _, id := range r.order {
		if entry := r.entries[id]; keep(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// IDs returns the registered form ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ClientSpecificMetadata returns the metadata for id with the client-type
// override applied, followed by every field's own override.
func (r *Registry) ClientSpecificMetadata(id, clientType string) (model.FormMetadata, bool) {
	meta, ok := r.Metadata(id)
	if !ok {
		return model.FormMetadata{}, false
	}
	return model.ResolveForm(meta, clientType), true
}

// Dependents returns the ids of forms that declare a dependency on formID
// for clientType, base or client-type override, in registration order.
func (r *Registry) Dependents(formID, clientType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range r.order {
		if id == formID {
			continue
		}
		for _, dep := range model.ResolveForm(r.forms[id], clientType).Dependencies {
			if dep.FormID == formID {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// Verify reports every dependency that still names an unregistered form.
// Call it once all providers have registered.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for _, id := range r.order {
		for _, dep := range r.forms[id].Dependencies {
			if _, ok := r.forms[dep.FormID]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s depends on %s", ErrDanglingReference, id, dep.FormID))
			}
		}
	}
	return errors.Join(errs...)
}

func cloneForm(meta model.FormMetadata) model.FormMetadata {
	out := meta
	out.Sections = append([]model.FormSection(nil), meta.Sections...)
	out.Fields = append([]model.FormField(nil), meta.Fields...)
	out.Dependencies = append([]model.FormDependency(nil), meta.Dependencies...)
	out.Permissions = append([]string(nil), meta.Permissions...)
	return out
}
