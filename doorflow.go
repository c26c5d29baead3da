package doorflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samrum/doorflow/model"
	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/runtime/execution"
	"github.com/samrum/doorflow/service/definition"
	"github.com/samrum/doorflow/service/delegate"
	"github.com/samrum/doorflow/service/engine"
	"github.com/samrum/doorflow/service/history"
	historymem "github.com/samrum/doorflow/service/history/memory"
	"github.com/samrum/doorflow/service/task"
	taskmem "github.com/samrum/doorflow/service/task/memory"
)

// ErrInstanceNotFound is returned when an instance id is neither live nor
// archived.
var ErrInstanceNotFound = errors.New("doorflow: instance not found")

// Service assembles the orchestration engine with its collaborating
// services and exposes the boundary operations.
type Service struct {
	definitions *definition.Service
	delegates   *delegate.Registry
	tasks       task.Service
	history     history.Service
	engine      *engine.Service

	notifier         delegate.Notifier
	buildingRegistry delegate.BuildingRegistry
	callTimeout      time.Duration
	engineConfig     *engine.Config
	extraDefinitions []*model.Definition
	extraDelegates   []delegate.Delegate
	skipDoorProcess  bool
}

// New assembles a ready-to-use service. Unless options say otherwise it
// runs fully in memory, logs notifications, accepts any location and has
// the door installation process registered.
func New(options ...Option) (*Service, error) {
	ret := &Service{
		definitions: definition.New(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.tasks == nil {
		ret.tasks = taskmem.New()
	}
	if ret.history == nil {
		ret.history = historymem.New()
	}
	var registryOptions []delegate.Option
	if ret.callTimeout > 0 {
		registryOptions = append(registryOptions, delegate.WithConfig(delegate.Config{CallTimeout: ret.callTimeout}))
	}
	ret.delegates = delegate.NewRegistry(registryOptions...)
	if !ret.skipDoorProcess {
		ret.registerDoorDelegates()
	}
	for _, d := range ret.extraDelegates {
		ret.delegates.Register(d)
	}
	if !ret.skipDoorProcess {
		if _, err := ret.definitions.Register(DoorProcess()); err != nil {
			return nil, err
		}
	}
	for _, def := range ret.extraDefinitions {
		if _, err := ret.definitions.Register(def); err != nil {
			return nil, err
		}
	}
	var engineOptions []engine.Option
	if ret.engineConfig != nil {
		engineOptions = append(engineOptions, engine.WithConfig(*ret.engineConfig))
	}
	ret.engine = engine.New(ret.definitions, ret.delegates, ret.tasks, ret.history, engineOptions...)
	return ret, nil
}

func (s *Service) registerDoorDelegates() {
	s.delegates.Register(delegate.NewValidation(s.buildingRegistry))
	s.delegates.Register(delegate.NewWorkOrder())
	s.delegates.Register(delegate.NewApprovalNotification(s.notifier))
	s.delegates.Register(delegate.NewRejectionNotification(s.notifier))
	s.delegates.Register(delegate.NewChangesRequestedNotification(s.notifier))
}

// StartRequest describes one instance to start. An empty DefinitionKey
// starts the door installation process.
type StartRequest struct {
	DefinitionKey string                 `json:"definitionKey,omitempty"`
	BusinessKey   string                 `json:"businessKey,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// StartResponse describes the instance right after the initial drive.
type StartResponse struct {
	ProcessInstanceID   string `json:"processInstanceId"`
	Status              string `json:"status"`
	CurrentTaskID       string `json:"currentTaskId,omitempty"`
	CurrentTaskName     string `json:"currentTaskName,omitempty"`
	CurrentTaskAssignee string `json:"currentTaskAssignee,omitempty"`
}

// StartProcess creates a new instance and drives it until it suspends on a
// human task or completes. Every call starts a fresh instance.
func (s *Service) StartProcess(ctx context.Context, request *StartRequest) (*StartResponse, error) {
	definitionKey := request.DefinitionKey
	if definitionKey == "" {
		definitionKey = DoorProcessKey
	}
	instance, err := s.engine.Start(ctx, definitionKey, request.BusinessKey, request.Variables)
	if err != nil {
		return nil, err
	}
	response := &StartResponse{
		ProcessInstanceID: instance.ID,
		Status:            instance.GetStatus(),
	}
	if response.Status == execution.StatusActive {
		if err := s.attachCurrentTask(ctx, instance.ID, response); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (s *Service) attachCurrentTask(ctx context.Context, instanceID string, response *StartResponse) error {
	open, err := s.tasks.ListOpenByInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		response.CurrentTaskID = open[0].ID
		response.CurrentTaskName = open[0].Name
		response.CurrentTaskAssignee = open[0].Assignee
	}
	return nil
}

// TaskView is an open task together with the current variables of its
// instance.
type TaskView struct {
	ID                string                 `json:"id"`
	ProcessInstanceID string                 `json:"processInstanceId"`
	DefinitionKey     string                 `json:"definitionKey"`
	Name              string                 `json:"name"`
	Assignee          string                 `json:"assignee,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	Variables         map[string]interface{} `json:"variables,omitempty"`
}

// ListTasks returns open tasks, optionally narrowed by assignee and
// definition key. Each entry carries a snapshot of its instance variables
// so that a reviewer sees the request without another round trip.
func (s *Service) ListTasks(ctx context.Context, assignee, definitionKey string) ([]*TaskView, error) {
	var open []*task.Task
	var err error
	if assignee != "" {
		open, err = s.tasks.ListByAssignee(ctx, assignee)
	} else {
		open, err = s.tasks.ListByDefinition(ctx, definitionKey)
	}
	if err != nil {
		return nil, err
	}
	ret := make([]*TaskView, 0, len(open))
	for _, t := range open {
		if assignee != "" && definitionKey != "" && t.DefinitionKey != definitionKey {
			continue
		}
		view := &TaskView{
			ID:                t.ID,
			ProcessInstanceID: t.ProcessInstanceID,
			DefinitionKey:     t.DefinitionKey,
			Name:              t.Name,
			Assignee:          t.Assignee,
			CreatedAt:         t.CreatedAt,
		}
		if instance, err := s.engine.Instance(ctx, t.ProcessInstanceID); err == nil {
			view.Variables = instance.Session.Snapshot().Interface()
		}
		ret = append(ret, view)
	}
	return ret, nil
}

// CompleteResponse describes where the instance went after a task
// completion.
type CompleteResponse struct {
	TaskID            string `json:"taskId"`
	ProcessInstanceID string `json:"processInstanceId"`
	ProcessStatus     string `json:"processStatus"`
	NextTaskID        string `json:"nextTaskId,omitempty"`
	NextTaskName      string `json:"nextTaskName,omitempty"`
}

// CompleteTask completes an open task with the supplied outcome variables
// and drives the instance onward. A duplicate completion fails with
// task.ErrNotFound and leaves the instance untouched.
func (s *Service) CompleteTask(ctx context.Context, taskID string, variables map[string]interface{}) (*CompleteResponse, error) {
	instance, err := s.engine.CompleteTask(ctx, taskID, variables)
	if err != nil {
		return nil, err
	}
	response := &CompleteResponse{
		TaskID:            taskID,
		ProcessInstanceID: instance.ID,
		ProcessStatus:     instance.GetStatus(),
	}
	if response.ProcessStatus == execution.StatusActive {
		open, err := s.tasks.ListOpenByInstance(ctx, instance.ID)
		if err != nil {
			return nil, err
		}
		if len(open) > 0 {
			response.NextTaskID = open[0].ID
			response.NextTaskName = open[0].Name
		}
	}
	return response, nil
}

// InstanceTask is an open task listed on a live instance view.
type InstanceTask struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Assignee  string    `json:"assignee,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// InstanceView is the uniform projection of a live or archived instance.
type InstanceView struct {
	ProcessInstanceID string                 `json:"processInstanceId"`
	DefinitionKey     string                 `json:"definitionKey"`
	BusinessKey       string                 `json:"businessKey,omitempty"`
	Status            string                 `json:"status"`
	CurrentStep       string                 `json:"currentStep,omitempty"`
	StartedAt         time.Time              `json:"startedAt"`
	FinishedAt        *time.Time             `json:"finishedAt,omitempty"`
	DurationMs        int64                  `json:"durationMs,omitempty"`
	Variables         map[string]interface{} `json:"variables,omitempty"`
	CurrentTasks      []*InstanceTask        `json:"currentTasks,omitempty"`
}

// GetInstance returns a live instance together with its open tasks, falling
// back to the archive once the instance completed.
func (s *Service) GetInstance(ctx context.Context, id string) (*InstanceView, error) {
	instance, err := s.engine.Instance(ctx, id)
	if err == nil {
		view := liveView(instance)
		open, err := s.tasks.ListOpenByInstance(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, t := range open {
			view.CurrentTasks = append(view.CurrentTasks, &InstanceTask{
				ID:        t.ID,
				Name:      t.Name,
				Assignee:  t.Assignee,
				CreatedAt: t.CreatedAt,
			})
		}
		return view, nil
	}
	if !errors.Is(err, engine.ErrInstanceNotFound) {
		return nil, err
	}
	record, err := s.history.GetByInstanceID(ctx, id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
		}
		return nil, err
	}
	return archivedView(record), nil
}

// ListAllInstances returns live instances followed by the archived ones,
// most recently finished first. An empty definition key returns instances
// of every definition.
func (s *Service) ListAllInstances(ctx context.Context, definitionKey string) ([]*InstanceView, error) {
	live, err := s.engine.Instances(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(live, func(i, j int) bool { return live[i].StartedAt.After(live[j].StartedAt) })
	records, err := s.history.ListCompleted(ctx, definitionKey)
	if err != nil {
		return nil, err
	}
	ret := make([]*InstanceView, 0, len(live)+len(records))
	for _, instance := range live {
		if definitionKey != "" && instance.DefinitionKey != definitionKey {
			continue
		}
		ret = append(ret, liveView(instance))
	}
	for _, record := range records {
		ret = append(ret, archivedView(record))
	}
	return ret, nil
}

// GetHistory returns the full archived record of a completed instance,
// including the write journal and the completed task trail.
func (s *Service) GetHistory(ctx context.Context, id string) (*history.Record, error) {
	record, err := s.history.GetByInstanceID(ctx, id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

func liveView(instance *execution.Instance) *InstanceView {
	return &InstanceView{
		ProcessInstanceID: instance.ID,
		DefinitionKey:     instance.DefinitionKey,
		BusinessKey:       instance.BusinessKey,
		Status:            instance.GetStatus(),
		CurrentStep:       instance.Step(),
		StartedAt:         instance.StartedAt,
		Variables:         instance.Session.Snapshot().Interface(),
	}
}

func archivedView(record *history.Record) *InstanceView {
	end := record.EndTime
	return &InstanceView{
		ProcessInstanceID: record.ProcessInstanceID,
		DefinitionKey:     record.DefinitionKey,
		BusinessKey:       record.BusinessKey,
		Status:            execution.StatusCompleted,
		StartedAt:         record.StartTime,
		FinishedAt:        &end,
		DurationMs:        end.Sub(record.StartTime).Milliseconds(),
		Variables:         variablesInterface(record.Variables),
	}
}

func variablesInterface(vars state.Variables) map[string]interface{} {
	if len(vars) == 0 {
		return nil
	}
	return vars.Interface()
}

// Definitions exposes the definition registry for callers that register
// their own processes after assembly.
func (s *Service) Definitions() *definition.Service { return s.definitions }

// Delegates exposes the delegate registry.
func (s *Service) Delegates() *delegate.Registry { return s.delegates }

// Tasks exposes the task queue.
func (s *Service) Tasks() task.Service { return s.tasks }

// History exposes the archive.
func (s *Service) History() history.Service { return s.history }

// Engine exposes the drive engine.
func (s *Service) Engine() *engine.Service { return s.engine }
