package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDefinition() *Definition {
	return NewDefinition("approval").
		WithStart("check").
		AddAutomated("check", "checkRequest").
		AddGateway("route", "review",
			&Branch{When: "${valid == false}", To: "done"},
		).
		AddHumanTask("review", "Review request", "${reviewerId}").
		AddEnd("done").
		AddTransition("check", "route").
		AddTransition("review", "done")
}

func TestDefinition_Validate(t *testing.T) {
	testCases := []struct {
		description string
		definition  *Definition
		expectIssue string
	}{
		{
			description: "sound definition",
			definition:  validDefinition(),
		},
		{
			description: "empty key",
			definition:  NewDefinition("").WithStart("done").AddEnd("done"),
			expectIssue: "definition key is empty",
		},
		{
			description: "no steps",
			definition:  NewDefinition("empty"),
			expectIssue: "definition has no steps",
		},
		{
			description: "duplicate step id",
			definition: NewDefinition("dup").WithStart("done").
				AddEnd("done").AddEnd("done"),
			expectIssue: "duplicate step id done",
		},
		{
			description: "automated step without delegate",
			definition: NewDefinition("nodelegate").WithStart("work").
				AddAutomated("work", "").AddEnd("done").
				AddTransition("work", "done"),
			expectIssue: "automated step work has no delegate",
		},
		{
			description: "human step without task name",
			definition: NewDefinition("noname").WithStart("review").
				AddHumanTask("review", "", "").AddEnd("done").
				AddTransition("review", "done"),
			expectIssue: "human step review has no task name",
		},
		{
			description: "gateway without default",
			definition: NewDefinition("nodefault").WithStart("route").
				AddGateway("route", "", &Branch{When: "${x == 1}", To: "done"}).
				AddEnd("done"),
			expectIssue: "gateway route has no default branch",
		},
		{
			description: "start step missing",
			definition:  NewDefinition("nostart").WithStart("ghost").AddEnd("done"),
			expectIssue: "start step ghost does not exist",
		},
		{
			description: "no terminal step",
			definition: NewDefinition("noend").WithStart("work").
				AddAutomated("work", "doIt").AddTransition("work", "work"),
			expectIssue: "definition has no terminal step",
		},
		{
			description: "transition targets unknown step",
			definition: NewDefinition("badedge").WithStart("work").
				AddAutomated("work", "doIt").AddEnd("done").
				AddTransition("work", "ghost"),
			expectIssue: "transition from work targets unknown step ghost",
		},
		{
			description: "terminal step with outgoing transition",
			definition: NewDefinition("endout").WithStart("work").
				AddAutomated("work", "doIt").AddEnd("done").
				AddTransition("work", "done").AddTransition("done", "work"),
			expectIssue: "terminal step done has outgoing transitions",
		},
		{
			description: "non-terminal step without outgoing transition",
			definition: NewDefinition("stranded").WithStart("work").
				AddAutomated("work", "doIt").AddEnd("done"),
			expectIssue: "step work has no outgoing transition",
		},
		{
			description: "gateway branch without guard",
			definition: NewDefinition("noguard").WithStart("route").
				AddGateway("route", "done", &Branch{When: "", To: "done"}).
				AddEnd("done"),
			expectIssue: "gateway route has a branch with no guard",
		},
		{
			description: "unreachable step",
			definition: NewDefinition("island").WithStart("work").
				AddAutomated("work", "doIt").
				AddAutomated("orphan", "doIt").
				AddEnd("done").
				AddTransition("work", "done").
				AddTransition("orphan", "done"),
			expectIssue: "step orphan is unreachable from start",
		},
	}

	for _, testCase := range testCases {
		issues := testCase.definition.Validate()
		if testCase.expectIssue == "" {
			assert.Empty(t, issues, testCase.description)
			continue
		}
		if !assert.NotEmpty(t, issues, testCase.description) {
			continue
		}
		var messages []string
		for _, issue := range issues {
			messages = append(messages, issue.Error())
		}
		assert.Contains(t, messages, testCase.expectIssue, testCase.description)
	}
}

func TestDefinition_Lookups(t *testing.T) {
	definition := validDefinition()
	step := definition.Step("route")
	if assert.NotNil(t, step) {
		assert.Equal(t, StepGateway, step.Kind)
	}
	assert.Nil(t, definition.Step("ghost"))
	outgoing := definition.Outgoing("check")
	if assert.Len(t, outgoing, 1) {
		assert.Equal(t, "route", outgoing[0].To)
	}
	assert.True(t, definition.Step("done").IsTerminal())
}
