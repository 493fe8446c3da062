package expr

import (
	"strings"
	"sync"
)

// Program is a parsed expression ready to be evaluated against any number of
// variable sets. Programs are immutable and safe for concurrent use.
type Program struct {
	source string
	root   node
}

// Compile parses source into a Program.
func Compile(source string) (*Program, error) {
	trimmed := strings.TrimSpace(source)
	root, err := parse(trimmed)
	if err != nil {
		return nil, err
	}
	return &Program{source: trimmed, root: root}, nil
}

// Source returns the trimmed expression text.
func (p *Program) Source() string { return p.source }

// Eval evaluates the program. Only names present in vars resolve; any other
// identifier reads as nil.
func (p *Program) Eval(vars map[string]any) (any, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	return p.root.eval(vars)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCacheSize bounds the number of compiled programs kept. When the bound
// is reached the cache is reset. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(e *Evaluator) {
		e.cacheSize = size
	}
}

// Evaluator compiles and caches programs by source string.
type Evaluator struct {
	mu        sync.RWMutex
	programs  map[string]*Program
	cacheSize int
}

// New constructs an Evaluator.
func New(options ...Option) *Evaluator {
	e := &Evaluator{
		programs:  make(map[string]*Program),
		cacheSize: 1024,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Program returns the compiled program for expression, compiling it on
// first use.
func (e *Evaluator) Program(expression string) (*Program, error) {
	key := strings.TrimSpace(expression)
	e.mu.RLock()
	program, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := Compile(key)
	if err != nil {
		return nil, err
	}
	if e.cacheSize <= 0 {
		return program, nil
	}
	e.mu.Lock()
	if len(e.programs) >= e.cacheSize {
		e.programs = make(map[string]*Program)
	}
	e.programs[key] = program
	e.mu.Unlock()
	return program, nil
}

// Evaluate compiles (or reuses) expression and evaluates it against vars.
func (e *Evaluator) Evaluate(expression string, vars map[string]any) (any, error) {
	program, err := e.Program(expression)
	if err != nil {
		return nil, err
	}
	return program.Eval(vars)
}

// EvaluateBool evaluates expression and returns its truthiness.
func (e *Evaluator) EvaluateBool(expression string, vars map[string]any) (bool, error) {
	value, err := e.Evaluate(expression, vars)
	if err != nil {
		return false, err
	}
	return Truthy(value), nil
}

// Cached reports how many programs are currently cached.
func (e *Evaluator) Cached() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programs)
}
