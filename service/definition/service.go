// Package definition keeps the registered process definitions. Definitions
// are registered once at startup, validated and guard-compiled at that
// point, and are read-only afterwards.
package definition

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samrum/doorflow/model"
	"github.com/samrum/doorflow/runtime/evaluator"
)

// ErrNotFound is returned when no definition is registered under a key.
var ErrNotFound = errors.New("definition: not found")

// Handle is a registered, validated definition together with its compiled
// guard expressions.
type Handle struct {
	*model.Definition
	guards map[string]*evaluator.Guard
}

// Guard returns the compiled guard for an expression appearing in this
// definition. Registration compiles every guard, so a miss indicates a
// programming error in the caller.
func (h *Handle) Guard(expr string) (*evaluator.Guard, error) {
	guard, ok := h.guards[expr]
	if !ok {
		return nil, fmt.Errorf("guard %q was not compiled for definition %s", expr, h.Key)
	}
	return guard, nil
}

// Service is the definition registry.
type Service struct {
	mu          sync.RWMutex
	definitions map[string]*Handle
}

// New creates an empty registry.
func New() *Service {
	return &Service{definitions: make(map[string]*Handle)}
}

// Register validates the definition, compiles its guards and stores it.
// Violations of the graph invariants surface as *model.InvalidDefinitionError.
func (s *Service) Register(def *model.Definition) (*Handle, error) {
	if def == nil {
		return nil, fmt.Errorf("definition is nil")
	}
	issues := def.Validate()

	guards := map[string]*evaluator.Guard{}
	for _, expr := range guardExpressions(def) {
		if _, ok := guards[expr]; ok {
			continue
		}
		guard, err := evaluator.Compile(expr)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		guards[expr] = guard
	}
	if len(issues) > 0 {
		return nil, &model.InvalidDefinitionError{Key: def.Key, Issues: issues}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[def.Key]; ok {
		return nil, fmt.Errorf("definition %s already registered", def.Key)
	}
	handle := &Handle{Definition: def, guards: guards}
	s.definitions[def.Key] = handle
	return handle, nil
}

// Lookup returns a registered definition.
func (s *Service) Lookup(key string) (*Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.definitions[key]
	if !ok {
		return nil, fmt.Errorf("definition %s: %w", key, ErrNotFound)
	}
	return handle, nil
}

// Keys returns the keys of all registered definitions.
func (s *Service) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]string, 0, len(s.definitions))
	for key := range s.definitions {
		ret = append(ret, key)
	}
	return ret
}

func guardExpressions(def *model.Definition) []string {
	var ret []string
	for _, transition := range def.Transitions {
		if transition.When != "" {
			ret = append(ret, transition.When)
		}
	}
	for _, step := range def.Steps {
		if step.Kind != model.StepGateway || step.Gateway == nil {
			continue
		}
		for _, branch := range step.Gateway.Branches {
			if branch.When != "" {
				ret = append(ret, branch.When)
			}
		}
	}
	return ret
}
