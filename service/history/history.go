// Package history is the immutable archive of completed instances. Records
// are written exactly once, when the engine retires a live instance, and
// are read-only afterwards.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/runtime/execution"
)

var (
	// ErrNotFound is returned when no record exists for an instance id.
	ErrNotFound = errors.New("history: not found")

	// ErrAlreadyArchived guards the exactly-once archive invariant.
	ErrAlreadyArchived = errors.New("history: instance already archived")
)

// TaskSummary captures one completed human task of an archived instance.
type TaskSummary struct {
	Name        string          `json:"name"`
	Assignee    string          `json:"assignee,omitempty"`
	CompletedAt time.Time       `json:"completedAt"`
	Outcome     state.Variables `json:"outcome,omitempty"`
}

// Record is the immutable trace of one completed instance.
type Record struct {
	ProcessInstanceID string            `json:"processInstanceId"`
	BusinessKey       string            `json:"businessKey,omitempty"`
	DefinitionKey     string            `json:"definitionKey"`
	StartTime         time.Time         `json:"startTime"`
	EndTime           time.Time         `json:"endTime"`
	Variables         state.Variables   `json:"variables"`
	Journal           []execution.Write `json:"journal,omitempty"`
	Tasks             []TaskSummary     `json:"tasks,omitempty"`
}

// Service is the archive contract.
type Service interface {
	// Archive stores the record; a second attempt for the same instance
	// fails with ErrAlreadyArchived and leaves the first record untouched.
	Archive(ctx context.Context, record *Record) error

	// GetByInstanceID returns an archived record.
	GetByInstanceID(ctx context.Context, id string) (*Record, error)

	// ListCompleted returns the records of a definition ordered by end time
	// descending. An empty key returns every record.
	ListCompleted(ctx context.Context, definitionKey string) ([]*Record, error)
}
