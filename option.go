package doorflow

import (
	"time"

	"github.com/samrum/doorflow/model"
	"github.com/samrum/doorflow/service/delegate"
	"github.com/samrum/doorflow/service/engine"
	"github.com/samrum/doorflow/service/history"
	"github.com/samrum/doorflow/service/task"
)

// Option customises the service assembly.
type Option func(*Service)

// WithNotifier routes outcome notifications to an external channel instead
// of the process log.
func WithNotifier(notifier delegate.Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// WithBuildingRegistry wires the external location lookup consulted during
// request validation.
func WithBuildingRegistry(registry delegate.BuildingRegistry) Option {
	return func(s *Service) { s.buildingRegistry = registry }
}

// WithTaskService replaces the in-memory task queue.
func WithTaskService(tasks task.Service) Option {
	return func(s *Service) { s.tasks = tasks }
}

// WithHistoryService replaces the in-memory archive.
func WithHistoryService(archive history.Service) Option {
	return func(s *Service) { s.history = archive }
}

// WithCallTimeout bounds every external-collaborator call a delegate makes.
func WithCallTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.callTimeout = timeout }
}

// WithEngineConfig overrides the engine configuration.
func WithEngineConfig(config engine.Config) Option {
	return func(s *Service) { s.engineConfig = &config }
}

// WithDefinitions registers additional process definitions next to the
// built-in door installation process.
func WithDefinitions(definitions ...*model.Definition) Option {
	return func(s *Service) { s.extraDefinitions = append(s.extraDefinitions, definitions...) }
}

// WithDelegates registers additional delegates next to the built-in ones.
func WithDelegates(delegates ...delegate.Delegate) Option {
	return func(s *Service) { s.extraDelegates = append(s.extraDelegates, delegates...) }
}

// WithoutDoorProcess skips registration of the built-in door installation
// process, leaving the service as a bare orchestration engine.
func WithoutDoorProcess() Option {
	return func(s *Service) { s.skipDoorProcess = true }
}
