package model

import (
	"fmt"
	"strings"
)

// InvalidDefinitionError aggregates the structural issues found at
// registration time. A definition carrying any issue is rejected before it
// can reach the runtime.
type InvalidDefinitionError struct {
	Key    string
	Issues []error
}

func (e *InvalidDefinitionError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Error())
	}
	return fmt.Sprintf("invalid definition %q: %s", e.Key, strings.Join(parts, "; "))
}

// Validate performs a structural validation of the definition. The returned
// slice is empty when the graph is sound. The function does not evaluate any
// guard expression; it only verifies static properties.
func (d *Definition) Validate() []error {
	var issues []error

	if d.Key == "" {
		issues = append(issues, fmt.Errorf("definition key is empty"))
	}
	if len(d.Steps) == 0 {
		issues = append(issues, fmt.Errorf("definition has no steps"))
		return issues
	}

	seen := map[string]*Step{}
	terminal := 0
	for _, step := range d.Steps {
		if step.ID == "" {
			issues = append(issues, fmt.Errorf("step with empty id"))
			continue
		}
		if _, ok := seen[step.ID]; ok {
			issues = append(issues, fmt.Errorf("duplicate step id %s", step.ID))
			continue
		}
		seen[step.ID] = step
		if step.IsTerminal() {
			terminal++
		}
		switch step.Kind {
		case StepAutomated:
			if step.Delegate == "" {
				issues = append(issues, fmt.Errorf("automated step %s has no delegate", step.ID))
			}
		case StepHuman:
			if step.Task == nil || step.Task.Name == "" {
				issues = append(issues, fmt.Errorf("human step %s has no task name", step.ID))
			}
		case StepGateway:
			if step.Gateway == nil || step.Gateway.Default == "" {
				issues = append(issues, fmt.Errorf("gateway %s has no default branch", step.ID))
			}
		case StepEnd:
		default:
			issues = append(issues, fmt.Errorf("step %s has unknown kind %q", step.ID, step.Kind))
		}
	}

	if d.Start == "" {
		issues = append(issues, fmt.Errorf("no start step designated"))
	} else if _, ok := seen[d.Start]; !ok {
		issues = append(issues, fmt.Errorf("start step %s does not exist", d.Start))
	}
	if terminal == 0 {
		issues = append(issues, fmt.Errorf("definition has no terminal step"))
	}

	outgoing := map[string]int{}
	for _, transition := range d.Transitions {
		if _, ok := seen[transition.From]; !ok {
			issues = append(issues, fmt.Errorf("transition from unknown step %s", transition.From))
			continue
		}
		if _, ok := seen[transition.To]; !ok {
			issues = append(issues, fmt.Errorf("transition from %s targets unknown step %s", transition.From, transition.To))
			continue
		}
		outgoing[transition.From]++
	}

	for _, step := range d.Steps {
		if step.ID == "" {
			continue
		}
		switch {
		case step.IsTerminal():
			if outgoing[step.ID] > 0 {
				issues = append(issues, fmt.Errorf("terminal step %s has outgoing transitions", step.ID))
			}
		case step.Kind == StepGateway:
			if step.Gateway == nil {
				continue
			}
			for _, branch := range step.Gateway.Branches {
				if _, ok := seen[branch.To]; !ok {
					issues = append(issues, fmt.Errorf("gateway %s branch targets unknown step %s", step.ID, branch.To))
				}
				if branch.When == "" {
					issues = append(issues, fmt.Errorf("gateway %s has a branch with no guard", step.ID))
				}
			}
			if step.Gateway.Default != "" {
				if _, ok := seen[step.Gateway.Default]; !ok {
					issues = append(issues, fmt.Errorf("gateway %s default targets unknown step %s", step.ID, step.Gateway.Default))
				}
			}
		default:
			if outgoing[step.ID] == 0 {
				issues = append(issues, fmt.Errorf("step %s has no outgoing transition", step.ID))
			}
		}
	}

	// Reachability from the start step; unreachable steps are rejected so
	// that a registered graph has no dead nodes.
	if _, ok := seen[d.Start]; ok {
		reached := map[string]bool{d.Start: true}
		queue := []string{d.Start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, next := range d.successors(current) {
				if _, known := seen[next]; !known || reached[next] {
					continue
				}
				reached[next] = true
				queue = append(queue, next)
			}
		}
		for _, step := range d.Steps {
			if step.ID != "" && !reached[step.ID] {
				issues = append(issues, fmt.Errorf("step %s is unreachable from start", step.ID))
			}
		}
	}
	return issues
}

func (d *Definition) successors(id string) []string {
	var ret []string
	step := d.Step(id)
	if step == nil {
		return nil
	}
	if step.Kind == StepGateway && step.Gateway != nil {
		for _, branch := range step.Gateway.Branches {
			ret = append(ret, branch.To)
		}
		if step.Gateway.Default != "" {
			ret = append(ret, step.Gateway.Default)
		}
		return ret
	}
	for _, transition := range d.Outgoing(id) {
		ret = append(ret, transition.To)
	}
	return ret
}
