// Package model defines the static process definition graph: steps,
// transitions, gateways and the structural validation applied before a
// definition may be registered.
package model

// StepKind enumerates the node kinds a process definition may contain.
type StepKind string

const (
	// StepAutomated is a service step executed by a registered delegate.
	StepAutomated StepKind = "automated"
	// StepHuman suspends the instance until a human task is completed.
	StepHuman StepKind = "humanTask"
	// StepGateway routes along the first branch whose guard holds.
	StepGateway StepKind = "exclusiveGateway"
	// StepEnd terminates the instance.
	StepEnd StepKind = "end"
)

type (
	// Definition is the static graph describing one repeatable workflow.
	// It is immutable after registration.
	Definition struct {
		Key         string        `json:"key" yaml:"key"`
		Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
		Description string        `json:"description,omitempty" yaml:"description,omitempty"`
		Start       string        `json:"start" yaml:"start"`
		Steps       []*Step       `json:"steps" yaml:"steps"`
		Transitions []*Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`

		steps    map[string]*Step
		outgoing map[string][]*Transition
	}

	// Step is a single node of the definition graph.
	Step struct {
		ID       string     `json:"id" yaml:"id"`
		Kind     StepKind   `json:"kind" yaml:"kind"`
		Delegate string     `json:"delegate,omitempty" yaml:"delegate,omitempty"`
		Task     *HumanTask `json:"task,omitempty" yaml:"task,omitempty"`
		Gateway  *Gateway   `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	}

	// HumanTask describes the task surfaced to collaborators when the
	// instance reaches a human step. Assignee may reference a variable with
	// the ${name} form; it is advisory metadata only.
	HumanTask struct {
		Name     string `json:"name" yaml:"name"`
		Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	}

	// Gateway holds ordered guarded branches plus a mandatory default.
	Gateway struct {
		Branches []*Branch `json:"branches,omitempty" yaml:"branches,omitempty"`
		Default  string    `json:"default" yaml:"default"`
	}

	// Branch pairs a guard expression with a target step.
	Branch struct {
		When string `json:"when" yaml:"when"`
		To   string `json:"to" yaml:"to"`
	}

	// Transition connects two steps; When optionally guards it.
	Transition struct {
		From string `json:"from" yaml:"from"`
		To   string `json:"to" yaml:"to"`
		When string `json:"when,omitempty" yaml:"when,omitempty"`
	}
)

// NewDefinition creates an empty definition for the given key.
func NewDefinition(key string) *Definition {
	return &Definition{Key: key}
}

// WithName sets a human readable name.
func (d *Definition) WithName(name string) *Definition {
	d.Name = name
	return d
}

// WithStart designates the start step.
func (d *Definition) WithStart(stepID string) *Definition {
	d.Start = stepID
	return d
}

// AddAutomated appends an automated step bound to the given delegate key.
func (d *Definition) AddAutomated(id, delegate string) *Definition {
	d.Steps = append(d.Steps, &Step{ID: id, Kind: StepAutomated, Delegate: delegate})
	return d
}

// AddHumanTask appends a human step.
func (d *Definition) AddHumanTask(id, name, assignee string) *Definition {
	d.Steps = append(d.Steps, &Step{ID: id, Kind: StepHuman, Task: &HumanTask{Name: name, Assignee: assignee}})
	return d
}

// AddGateway appends an exclusive gateway with ordered branches and a
// default target.
func (d *Definition) AddGateway(id string, defaultTo string, branches ...*Branch) *Definition {
	d.Steps = append(d.Steps, &Step{ID: id, Kind: StepGateway, Gateway: &Gateway{Branches: branches, Default: defaultTo}})
	return d
}

// AddEnd appends a terminal step.
func (d *Definition) AddEnd(id string) *Definition {
	d.Steps = append(d.Steps, &Step{ID: id, Kind: StepEnd})
	return d
}

// AddTransition appends an unguarded transition.
func (d *Definition) AddTransition(from, to string) *Definition {
	d.Transitions = append(d.Transitions, &Transition{From: from, To: to})
	return d
}

// AddGuardedTransition appends a transition taken only when the guard holds.
func (d *Definition) AddGuardedTransition(from, to, when string) *Definition {
	d.Transitions = append(d.Transitions, &Transition{From: from, To: to, When: when})
	return d
}

// Step returns a step by id, or nil.
func (d *Definition) Step(id string) *Step {
	if d.steps == nil {
		d.buildIndex()
	}
	return d.steps[id]
}

// Outgoing returns transitions leaving the given step in declaration order.
func (d *Definition) Outgoing(id string) []*Transition {
	if d.outgoing == nil {
		d.buildIndex()
	}
	return d.outgoing[id]
}

// buildIndex materialises step and transition lookups. The registry calls it
// once at registration, before the definition is shared.
func (d *Definition) buildIndex() {
	d.steps = make(map[string]*Step, len(d.Steps))
	for _, step := range d.Steps {
		d.steps[step.ID] = step
	}
	d.outgoing = make(map[string][]*Transition, len(d.Transitions))
	for _, transition := range d.Transitions {
		d.outgoing[transition.From] = append(d.outgoing[transition.From], transition)
	}
}

// IsTerminal reports whether the step ends the instance.
func (s *Step) IsTerminal() bool { return s.Kind == StepEnd }
