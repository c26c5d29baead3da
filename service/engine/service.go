// Package engine drives process instances through their definitions. A
// drive call runs synchronously on the caller's goroutine and advances the
// instance until it suspends on a human task or reaches an end step.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/samrum/doorflow/internal/idgen"
	"github.com/samrum/doorflow/model"
	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/runtime/execution"
	"github.com/samrum/doorflow/service/dao/store"
	"github.com/samrum/doorflow/service/definition"
	"github.com/samrum/doorflow/service/delegate"
	"github.com/samrum/doorflow/service/history"
	"github.com/samrum/doorflow/service/task"
	"github.com/samrum/doorflow/tracing"
)

var (
	// ErrInstanceNotFound is returned when no live instance exists for an id.
	ErrInstanceNotFound = errors.New("engine: instance not found")

	// ErrGatewayNoMatch is returned when no gateway branch holds and the
	// gateway carries no default. Validation rejects such definitions, so
	// seeing this error indicates definition state was mutated after
	// registration.
	ErrGatewayNoMatch = errors.New("engine: no gateway branch matched")

	// ErrNoTransition is returned when a step has no outgoing transition
	// whose guard holds.
	ErrNoTransition = errors.New("engine: no transition matched")
)

// Config holds engine tunables.
type Config struct {
	// MaxSteps bounds one drive call; definitions are validated acyclic in
	// spirit but not in letter, and a runaway loop must surface as an error
	// rather than hang the caller.
	MaxSteps int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{MaxSteps: 1000}
}

// Service advances instances through their definition graphs.
type Service struct {
	config      Config
	definitions *definition.Service
	delegates   *delegate.Registry
	tasks       task.Service
	history     history.Service
	instances   *store.MemoryStore[string, execution.Instance]
	locks       sync.Map
}

// Option customises the engine.
type Option func(*Service)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// New creates an engine over the supplied collaborating services.
func New(definitions *definition.Service, delegates *delegate.Registry, tasks task.Service, archive history.Service, options ...Option) *Service {
	ret := &Service{
		config:      DefaultConfig(),
		definitions: definitions,
		delegates:   delegates,
		tasks:       tasks,
		history:     archive,
		instances:   store.NewMemoryStore[string, execution.Instance](func(i *execution.Instance) string { return i.ID }),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Start creates a new instance of the definition and drives it until it
// suspends or completes. Every call creates a fresh instance; there is no
// business-key deduplication. On a delegate failure the instance remains
// live at the step preceding the failed one and the error is returned
// alongside it.
func (s *Service) Start(ctx context.Context, definitionKey, businessKey string, initial map[string]interface{}) (*execution.Instance, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Start")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	handle, err := s.definitions.Lookup(definitionKey)
	if err != nil {
		return nil, err
	}
	vars, err := state.NewVariables(initial)
	if err != nil {
		return nil, err
	}
	instance := execution.NewInstance(idgen.New(), definitionKey, businessKey, handle.Start, vars)
	span.WithAttributes(map[string]string{
		"process.definition": definitionKey,
		"process.instance":   instance.ID,
	})
	if err = s.instances.Save(ctx, instance); err != nil {
		return nil, err
	}
	unlock := s.lock(instance.ID)
	defer unlock()
	err = s.drive(ctx, handle, instance)
	return instance, err
}

// CompleteTask completes an open task, merges its outcome into the instance
// and drives the instance onward. Exactly one caller wins a concurrent
// completion race; the rest fail with task.ErrNotFound. When the drive
// fails, the completion is rolled back by reopening the task, so the same
// completion can be retried once the failure cause is gone.
func (s *Service) CompleteTask(ctx context.Context, taskID string, outcome map[string]interface{}) (*execution.Instance, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.CompleteTask")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	vars, err := state.NewVariables(outcome)
	if err != nil {
		return nil, err
	}
	completed, err := s.tasks.Complete(ctx, taskID, vars)
	if err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{
		"process.instance": completed.ProcessInstanceID,
		"task.id":          completed.ID,
	})
	unlock := s.lock(completed.ProcessInstanceID)
	defer unlock()
	instance, err := s.resume(ctx, completed, vars)
	if err != nil {
		if reopenErr := s.tasks.Reopen(ctx, completed.ID); reopenErr != nil {
			log.Printf("engine: failed to reopen task %s after resume error: %v", completed.ID, reopenErr)
		}
	}
	return instance, err
}

// resume merges a completed task's outcome and drives the instance onward.
// The caller holds the instance lock.
func (s *Service) resume(ctx context.Context, completed *task.Task, vars state.Variables) (*execution.Instance, error) {
	instance, err := s.instances.Load(ctx, completed.ProcessInstanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, completed.ProcessInstanceID)
	}
	handle, err := s.definitions.Lookup(instance.DefinitionKey)
	if err != nil {
		return instance, err
	}
	instance.Session.Merge(vars)
	if completed.CompletedAt != nil {
		instance.Session.Set("completedAt", state.Time(*completed.CompletedAt))
	}
	next, err := s.next(handle, completed.StepID, instance.Session.Snapshot())
	if err != nil {
		return instance, err
	}
	instance.SetStep(next)
	return instance, s.drive(ctx, handle, instance)
}

// Instance returns a live instance.
func (s *Service) Instance(ctx context.Context, id string) (*execution.Instance, error) {
	instance, err := s.instances.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	return instance, nil
}

// Instances returns all live instances.
func (s *Service) Instances(ctx context.Context) ([]*execution.Instance, error) {
	return s.instances.List(ctx)
}

// drive advances the instance until a human step suspends it or an end step
// retires it. The caller holds the instance lock.
func (s *Service) drive(ctx context.Context, handle *definition.Handle, instance *execution.Instance) error {
	for steps := 0; ; steps++ {
		if steps >= s.config.MaxSteps {
			return fmt.Errorf("engine: instance %s exceeded %v steps in one drive", instance.ID, s.config.MaxSteps)
		}
		step := handle.Step(instance.Step())
		if step == nil {
			return fmt.Errorf("engine: instance %s positioned at unknown step %q", instance.ID, instance.Step())
		}
		switch step.Kind {
		case model.StepAutomated:
			if err := s.runAutomated(ctx, instance, step); err != nil {
				return err
			}
			next, err := s.next(handle, step.ID, instance.Session.Snapshot())
			if err != nil {
				return err
			}
			instance.SetStep(next)
		case model.StepGateway:
			next, err := s.route(handle, step, instance.Session.Snapshot())
			if err != nil {
				return err
			}
			instance.SetStep(next)
		case model.StepHuman:
			return s.suspend(ctx, instance, step)
		case model.StepEnd:
			return s.finish(ctx, instance)
		default:
			return fmt.Errorf("engine: step %s has unsupported kind %q", step.ID, step.Kind)
		}
	}
}

// runAutomated invokes the delegate over a snapshot and commits its staged
// writes only on success; a failing delegate leaves the session untouched.
func (s *Service) runAutomated(ctx context.Context, instance *execution.Instance, step *model.Step) error {
	ctx, span := tracing.StartSpan(ctx, "delegate."+step.Delegate)
	execCtx := delegate.NewContext(instance.ID, instance.DefinitionKey, instance.BusinessKey,
		instance.Session.Snapshot(), s.delegates.CallTimeout())
	err := s.delegates.Invoke(ctx, step.Delegate, execCtx)
	tracing.EndSpan(span, err)
	if err != nil {
		return err
	}
	instance.Session.Merge(execCtx.Writes())
	return nil
}

// next picks the first outgoing transition whose guard holds; unguarded
// transitions always hold.
func (s *Service) next(handle *definition.Handle, stepID string, vars state.Variables) (string, error) {
	for _, transition := range handle.Outgoing(stepID) {
		if transition.When == "" {
			return transition.To, nil
		}
		guard, err := handle.Guard(transition.When)
		if err != nil {
			return "", err
		}
		ok, err := guard.Eval(vars)
		if err != nil {
			return "", err
		}
		if ok {
			return transition.To, nil
		}
	}
	return "", fmt.Errorf("%w: step %s", ErrNoTransition, stepID)
}

// route evaluates the gateway branches in declaration order and falls back
// to the default target.
func (s *Service) route(handle *definition.Handle, step *model.Step, vars state.Variables) (string, error) {
	for _, branch := range step.Gateway.Branches {
		guard, err := handle.Guard(branch.When)
		if err != nil {
			return "", err
		}
		ok, err := guard.Eval(vars)
		if err != nil {
			return "", err
		}
		if ok {
			return branch.To, nil
		}
	}
	if step.Gateway.Default == "" {
		return "", fmt.Errorf("%w: gateway %s", ErrGatewayNoMatch, step.ID)
	}
	return step.Gateway.Default, nil
}

// suspend opens a human task for the step and leaves the instance parked on
// it until the task completes.
func (s *Service) suspend(ctx context.Context, instance *execution.Instance, step *model.Step) error {
	return s.tasks.Create(ctx, &task.Task{
		ProcessInstanceID: instance.ID,
		DefinitionKey:     instance.DefinitionKey,
		StepID:            step.ID,
		Name:              step.Task.Name,
		Assignee:          s.assignee(instance, step.Task.Assignee),
	})
}

// assignee resolves the ${variable} form against the session; a literal
// assignee passes through and an absent variable yields an unassigned task.
func (s *Service) assignee(instance *execution.Instance, expr string) string {
	if !strings.HasPrefix(expr, "${") || !strings.HasSuffix(expr, "}") {
		return expr
	}
	name := strings.TrimSpace(expr[2 : len(expr)-1])
	value, _ := instance.Session.GetString(name)
	return value
}

// finish retires the instance: it leaves the live store, its tasks leave the
// queue and an immutable record enters the archive, exactly once.
func (s *Service) finish(ctx context.Context, instance *execution.Instance) error {
	instance.Complete()
	completed, err := s.tasks.CompletedByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}
	record := &history.Record{
		ProcessInstanceID: instance.ID,
		BusinessKey:       instance.BusinessKey,
		DefinitionKey:     instance.DefinitionKey,
		StartTime:         instance.StartedAt,
		EndTime:           *instance.FinishedAt,
		Variables:         instance.Session.Snapshot(),
		Journal:           instance.Session.Journal(),
	}
	for _, t := range completed {
		summary := history.TaskSummary{Name: t.Name, Assignee: t.Assignee, Outcome: t.Outcome}
		if t.CompletedAt != nil {
			summary.CompletedAt = *t.CompletedAt
		}
		record.Tasks = append(record.Tasks, summary)
	}
	if err := s.instances.Delete(ctx, instance.ID); err != nil {
		return err
	}
	if err := s.tasks.DropByInstance(ctx, instance.ID); err != nil {
		return err
	}
	if err := s.history.Archive(ctx, record); err != nil {
		return err
	}
	s.locks.Delete(instance.ID)
	return nil
}

// lock serialises drives of one instance; concurrent drives of distinct
// instances proceed in parallel.
func (s *Service) lock(instanceID string) func() {
	actual, _ := s.locks.LoadOrStore(instanceID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
