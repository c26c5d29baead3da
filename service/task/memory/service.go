// Package memory provides the in-memory task queue implementation.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/internal/idgen"
	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/service/task"
)

type service struct {
	mu      sync.RWMutex
	records map[string]*task.Task
}

// New creates an empty in-memory task queue.
func New() task.Service {
	return &service{records: map[string]*task.Task{}}
}

func (s *service) Create(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = idgen.New()
	}
	t.Status = task.StatusOpen
	t.CreatedAt = clock.Now()
	s.records[t.ID] = t
	return nil
}

func (s *service) Get(_ context.Context, id string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.records[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *service) ListByAssignee(_ context.Context, assignee string) ([]*task.Task, error) {
	ret := s.filter(func(t *task.Task) bool {
		return t.Status == task.StatusOpen && t.Assignee == assignee
	})
	// most recently created first
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].ID > ret[j].ID
		}
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret, nil
}

func (s *service) ListByDefinition(_ context.Context, definitionKey string) ([]*task.Task, error) {
	ret := s.filter(func(t *task.Task) bool {
		return t.Status == task.StatusOpen && (definitionKey == "" || t.DefinitionKey == definitionKey)
	})
	sort.Slice(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}

func (s *service) ListOpenByInstance(_ context.Context, instanceID string) ([]*task.Task, error) {
	ret := s.filter(func(t *task.Task) bool {
		return t.Status == task.StatusOpen && t.ProcessInstanceID == instanceID
	})
	sort.Slice(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}

func (s *service) Complete(_ context.Context, id string, outcome state.Variables) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.records[id]
	if !ok || t.Status != task.StatusOpen {
		// unknown and already-completed ids fail alike so that a duplicate
		// submission can never advance the instance twice
		return nil, task.ErrNotFound
	}
	now := clock.Now()
	t.Status = task.StatusCompleted
	t.CompletedAt = &now
	t.Outcome = outcome.Clone()
	clone := *t
	return &clone, nil
}

func (s *service) Reopen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.records[id]
	if !ok || t.Status != task.StatusCompleted {
		return task.ErrNotFound
	}
	t.Status = task.StatusOpen
	t.CompletedAt = nil
	t.Outcome = nil
	return nil
}

func (s *service) CompletedByInstance(_ context.Context, instanceID string) ([]*task.Task, error) {
	ret := s.filter(func(t *task.Task) bool {
		return t.Status == task.StatusCompleted && t.ProcessInstanceID == instanceID
	})
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CompletedAt.Before(*ret[j].CompletedAt)
	})
	return ret, nil
}

func (s *service) DropByInstance(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.records {
		if t.ProcessInstanceID == instanceID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *service) filter(include func(*task.Task) bool) []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ret []*task.Task
	for _, t := range s.records {
		if include(t) {
			clone := *t
			ret = append(ret, &clone)
		}
	}
	return ret
}

var _ task.Service = (*service)(nil)
