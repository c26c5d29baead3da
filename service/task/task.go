// Package task defines the human task queue. Tasks are created by the
// engine when an instance reaches a human step and completed by
// collaborators; completion hands control back to the engine.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/samrum/doorflow/model/state"
)

// Task status constants
const (
	StatusOpen      = "OPEN"
	StatusCompleted = "COMPLETED"
)

// ErrNotFound covers both unknown and already-completed task ids; a
// duplicate completion attempt must fail rather than advance the instance
// twice.
var ErrNotFound = errors.New("task: not found or already completed")

// Task is one unit of human work. Assignee is advisory metadata only: any
// caller may complete any open task.
type Task struct {
	ID                string          `json:"id"`
	ProcessInstanceID string          `json:"processInstanceId"`
	DefinitionKey     string          `json:"definitionKey"`
	StepID            string          `json:"stepId"`
	Name              string          `json:"name"`
	Assignee          string          `json:"assignee,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	Outcome           state.Variables `json:"outcome,omitempty"`
}

// Service is the task queue contract.
type Service interface {
	// Create enqueues an open task; invoked only by the engine.
	Create(ctx context.Context, t *Task) error

	// Get returns a task regardless of its status.
	Get(ctx context.Context, id string) (*Task, error)

	// ListByAssignee returns open tasks for an assignee, most recently
	// created first.
	ListByAssignee(ctx context.Context, assignee string) ([]*Task, error)

	// ListByDefinition returns open tasks of all instances of a definition;
	// an empty key returns every open task.
	ListByDefinition(ctx context.Context, definitionKey string) ([]*Task, error)

	// ListOpenByInstance returns the open tasks of one instance.
	ListOpenByInstance(ctx context.Context, instanceID string) ([]*Task, error)

	// Complete transitions a task from open to completed, recording the
	// outcome variables. Exactly one caller wins; every other attempt on the
	// same task fails with ErrNotFound.
	Complete(ctx context.Context, id string, outcome state.Variables) (*Task, error)

	// Reopen returns a completed task to the open state, discarding its
	// outcome. The engine calls it when the drive following a completion
	// fails, so that the same completion can be retried.
	Reopen(ctx context.Context, id string) error

	// CompletedByInstance returns the completed tasks of an instance in
	// completion order; the engine reads them when archiving.
	CompletedByInstance(ctx context.Context, instanceID string) ([]*Task, error)

	// DropByInstance removes all tasks of an archived instance from the
	// live queue.
	DropByInstance(ctx context.Context, instanceID string) error
}
