package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samrum/doorflow/model/state"
	"github.com/samrum/doorflow/service/dao"
	"github.com/samrum/doorflow/service/history"
)

func TestService_Archive(t *testing.T) {
	srv := New()
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	record := &history.Record{
		ProcessInstanceID: "inst-1",
		DefinitionKey:     "approval",
		StartTime:         start,
		EndTime:           start.Add(time.Minute),
		Variables:         state.Variables{"decision": state.String("APPROVED")},
	}
	assert.Nil(t, srv.Archive(ctx, record))

	// archiving is exactly once
	err := srv.Archive(ctx, record)
	assert.Equal(t, history.ErrAlreadyArchived, err)

	assert.Equal(t, dao.ErrNilEntity, srv.Archive(ctx, nil))
	assert.Equal(t, dao.ErrInvalidID, srv.Archive(ctx, &history.Record{}))

	loaded, err := srv.GetByInstanceID(ctx, "inst-1")
	assert.Nil(t, err)
	assert.Equal(t, "approval", loaded.DefinitionKey)

	_, err = srv.GetByInstanceID(ctx, "ghost")
	assert.Equal(t, history.ErrNotFound, err)
}

func TestService_ArchiveRace(t *testing.T) {
	srv := New()
	ctx := context.Background()
	record := &history.Record{ProcessInstanceID: "inst-1", DefinitionKey: "approval"}

	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Archive(ctx, record); err == nil {
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

func TestService_ListCompleted(t *testing.T) {
	srv := New()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	records := []*history.Record{
		{ProcessInstanceID: "inst-1", DefinitionKey: "approval", EndTime: base.Add(time.Minute)},
		{ProcessInstanceID: "inst-2", DefinitionKey: "approval", EndTime: base.Add(3 * time.Minute)},
		{ProcessInstanceID: "inst-3", DefinitionKey: "other", EndTime: base.Add(2 * time.Minute)},
	}
	for _, record := range records {
		assert.Nil(t, srv.Archive(ctx, record))
	}

	byDefinition, err := srv.ListCompleted(ctx, "approval")
	assert.Nil(t, err)
	if assert.Len(t, byDefinition, 2) {
		// most recently finished first
		assert.Equal(t, "inst-2", byDefinition[0].ProcessInstanceID)
		assert.Equal(t, "inst-1", byDefinition[1].ProcessInstanceID)
	}

	all, err := srv.ListCompleted(ctx, "")
	assert.Nil(t, err)
	if assert.Len(t, all, 3) {
		assert.Equal(t, "inst-2", all[0].ProcessInstanceID)
		assert.Equal(t, "inst-3", all[1].ProcessInstanceID)
		assert.Equal(t, "inst-1", all[2].ProcessInstanceID)
	}

	none, err := srv.ListCompleted(ctx, "ghost")
	assert.Nil(t, err)
	assert.Empty(t, none)
}
