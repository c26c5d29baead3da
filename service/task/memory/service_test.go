package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/service/task"
)

func TestService_Complete(t *testing.T) {
	srv := New()
	ctx := context.Background()

	created := &task.Task{ProcessInstanceID: "inst-1", DefinitionKey: "approval", StepID: "review", Name: "Review"}
	assert.Nil(t, srv.Create(ctx, created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, task.StatusOpen, created.Status)

	outcome := state.Variables{"decision": state.String("APPROVED")}
	completed, err := srv.Complete(ctx, created.ID, outcome)
	assert.Nil(t, err)
	assert.Equal(t, task.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.True(t, state.String("APPROVED").Equal(completed.Outcome.Lookup("decision")))

	// a second completion fails instead of advancing twice
	_, err = srv.Complete(ctx, created.ID, outcome)
	assert.Equal(t, task.ErrNotFound, err)

	_, err = srv.Complete(ctx, "ghost", outcome)
	assert.Equal(t, task.ErrNotFound, err)

	// the completed task remains readable
	loaded, err := srv.Get(ctx, created.ID)
	assert.Nil(t, err)
	assert.Equal(t, task.StatusCompleted, loaded.Status)
}

func TestService_Reopen(t *testing.T) {
	srv := New()
	ctx := context.Background()

	created := &task.Task{ProcessInstanceID: "inst-1", DefinitionKey: "approval", StepID: "review", Name: "Review"}
	assert.Nil(t, srv.Create(ctx, created))

	// only completed tasks can be reopened
	assert.Equal(t, task.ErrNotFound, srv.Reopen(ctx, created.ID))
	assert.Equal(t, task.ErrNotFound, srv.Reopen(ctx, "ghost"))

	outcome := state.Variables{"decision": state.String("APPROVED")}
	_, err := srv.Complete(ctx, created.ID, outcome)
	assert.Nil(t, err)

	assert.Nil(t, srv.Reopen(ctx, created.ID))
	reopened, err := srv.Get(ctx, created.ID)
	assert.Nil(t, err)
	assert.Equal(t, task.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.Outcome)

	// a reopened task accepts a fresh completion
	completed, err := srv.Complete(ctx, created.ID, outcome)
	assert.Nil(t, err)
	assert.Equal(t, task.StatusCompleted, completed.Status)
}

func TestService_CompleteRace(t *testing.T) {
	srv := New()
	ctx := context.Background()
	created := &task.Task{ProcessInstanceID: "inst-1", Name: "Review"}
	assert.Nil(t, srv.Create(ctx, created))

	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := srv.Complete(ctx, created.ID, nil); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestService_Listing(t *testing.T) {
	srv := New()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	restore := clock.NowFunc
	defer func() { clock.NowFunc = restore }()

	tick := 0
	clock.NowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first := &task.Task{ProcessInstanceID: "inst-1", DefinitionKey: "approval", Assignee: "alice", Name: "first"}
	second := &task.Task{ProcessInstanceID: "inst-2", DefinitionKey: "approval", Assignee: "alice", Name: "second"}
	other := &task.Task{ProcessInstanceID: "inst-3", DefinitionKey: "other", Assignee: "bob", Name: "third"}
	for _, item := range []*task.Task{first, second, other} {
		assert.Nil(t, srv.Create(ctx, item))
	}

	byAssignee, err := srv.ListByAssignee(ctx, "alice")
	assert.Nil(t, err)
	if assert.Len(t, byAssignee, 2) {
		// most recently created first
		assert.Equal(t, "second", byAssignee[0].Name)
		assert.Equal(t, "first", byAssignee[1].Name)
	}

	byDefinition, err := srv.ListByDefinition(ctx, "approval")
	assert.Nil(t, err)
	assert.Len(t, byDefinition, 2)

	all, err := srv.ListByDefinition(ctx, "")
	assert.Nil(t, err)
	assert.Len(t, all, 3)

	byInstance, err := srv.ListOpenByInstance(ctx, "inst-3")
	assert.Nil(t, err)
	assert.Len(t, byInstance, 1)

	// completed tasks leave the open listings and join the completed trail
	_, err = srv.Complete(ctx, first.ID, nil)
	assert.Nil(t, err)
	byAssignee, err = srv.ListByAssignee(ctx, "alice")
	assert.Nil(t, err)
	assert.Len(t, byAssignee, 1)

	completed, err := srv.CompletedByInstance(ctx, "inst-1")
	assert.Nil(t, err)
	assert.Len(t, completed, 1)
}

func TestService_DropByInstance(t *testing.T) {
	srv := New()
	ctx := context.Background()
	keep := &task.Task{ProcessInstanceID: "inst-1", Name: "keep"}
	drop := &task.Task{ProcessInstanceID: "inst-2", Name: "drop"}
	assert.Nil(t, srv.Create(ctx, keep))
	assert.Nil(t, srv.Create(ctx, drop))

	assert.Nil(t, srv.DropByInstance(ctx, "inst-2"))
	_, err := srv.Get(ctx, drop.ID)
	assert.Equal(t, task.ErrNotFound, err)
	_, err = srv.Get(ctx, keep.ID)
	assert.Nil(t, err)
}
