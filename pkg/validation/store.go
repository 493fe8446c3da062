package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/model"
)

var (
	// ErrRuleNotFound reports an update or delete of an unknown rule id.
	ErrRuleNotFound = errors.New("validation: rule not found")
	// ErrDuplicateRule reports an Add with an id that is already stored.
	ErrDuplicateRule = errors.New("validation: rule already exists")
)

// Store keeps dynamically registered rules in insertion order. Every update
// bumps the rule's Version.
type Store struct {
	mu    sync.RWMutex
	rules map[string]model.ValidationRule
	order []string
}

// NewStore constructs an empty rule store.
func NewStore() *Store {
	return &Store{rules: make(map[string]model.ValidationRule)}
}

// Add stores a new rule. Rules without an id receive a generated one; the
// stored version starts at 1.
func (s *Store) Add(rule model.ValidationRule) (model.ValidationRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.ID]; exists {
		return model.ValidationRule{}, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}
	rule.Version = 1
	s.rules[rule.ID] = rule
	s.order = append(s.order, rule.ID)
	return rule, nil
}

// Update replaces a stored rule and increments its version.
func (s *Store) Update(rule model.ValidationRule) (model.ValidationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rules[rule.ID]
	if !ok {
		return model.ValidationRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, rule.ID)
	}
	rule.Version = current.Version + 1
	s.rules[rule.ID] = rule
	return rule, nil
}

// Delete removes a rule.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	delete(s.rules, id)
	for idx, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
			break
		}
	}
	return nil
}

// Get returns the rule stored under id.
func (s *Store) Get(id string) (model.ValidationRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	return rule, ok
}

// ForField returns the rules registered for a form field, in insertion
// order. Rules without a form id apply to the field of every form.
func (s *Store) ForField(formID, fieldID string) []model.ValidationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ValidationRule
	for _, id := range s.order {
		rule := s.rules[id]
		if rule.FieldID != fieldID {
			continue
		}
		if rule.FormID != "" && rule.FormID != formID {
			continue
		}
		out = append(out, rule)
	}
	return out
}

// All returns every stored rule in insertion order.
func (s *Store) All() []model.ValidationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ValidationRule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rules[id])
	}
	return out
}
