// Package execution holds the live state of process instances: the instance
// record itself and its variable session. Completed instances leave this
// package for the history archive and never come back.
package execution

import (
	"sync"
	"time"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/model/state"
)

// Instance status constants
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
)

// Instance represents one in-flight execution of a process definition.
type Instance struct {
	ID            string     `json:"id"`
	DefinitionKey string     `json:"definitionKey"`
	BusinessKey   string     `json:"businessKey,omitempty"`
	CurrentStep   string     `json:"currentStep"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	Session       *Session   `json:"-"`

	mu sync.RWMutex
}

// NewInstance creates an active instance positioned at the given step.
func NewInstance(id, definitionKey, businessKey, startStep string, vars state.Variables) *Instance {
	now := clock.Now()
	return &Instance{
		ID:            id,
		DefinitionKey: definitionKey,
		BusinessKey:   businessKey,
		CurrentStep:   startStep,
		Status:        StatusActive,
		StartedAt:     now,
		UpdatedAt:     now,
		Session:       NewSession(id, vars),
	}
}

// Step returns the current step id.
func (i *Instance) Step() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.CurrentStep
}

// SetStep advances the instance to the given step.
func (i *Instance) SetStep(stepID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.CurrentStep = stepID
	i.UpdatedAt = clock.Now()
}

// GetStatus returns the instance status.
func (i *Instance) GetStatus() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.Status
}

// Complete marks the instance completed; it is a terminal transition and
// happens at most once.
func (i *Instance) Complete() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.Status == StatusCompleted {
		return
	}
	now := clock.Now()
	i.Status = StatusCompleted
	i.FinishedAt = &now
	i.UpdatedAt = now
}
