package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/model/state"
)

func TestSession_Journal(t *testing.T) {
	session := NewSession("inst-1", state.Variables{
		"b": state.Number(2),
		"a": state.Number(1),
	})
	session.Set("c", state.String("x"))
	session.Set("a", state.Number(3))

	journal := session.Journal()
	if !assert.Len(t, journal, 4) {
		return
	}
	// seed writes come in lexical order, later writes append
	assert.Equal(t, "a", journal[0].Name)
	assert.Equal(t, "b", journal[1].Name)
	assert.Equal(t, "c", journal[2].Name)
	assert.Equal(t, "a", journal[3].Name)
	assert.True(t, state.Number(3).Equal(journal[3].Value))

	// the journal keeps the superseded write, the snapshot does not
	snapshot := session.Snapshot()
	assert.True(t, state.Number(3).Equal(snapshot.Lookup("a")))
	assert.Len(t, snapshot, 3)
}

func TestSession_Apply(t *testing.T) {
	session := NewSession("inst-1", nil)
	err := session.Apply(map[string]interface{}{"budget": 100, "valid": true})
	assert.Nil(t, err)
	value, ok := session.Get("budget")
	assert.True(t, ok)
	assert.True(t, state.Number(100).Equal(value))

	err = session.Apply(map[string]interface{}{"bad": []int{1}})
	assert.NotNil(t, err)
}

func TestSession_SnapshotIsolation(t *testing.T) {
	session := NewSession("inst-1", state.Variables{"a": state.Number(1)})
	snapshot := session.Snapshot()
	session.Set("a", state.Number(2))
	assert.True(t, state.Number(1).Equal(snapshot.Lookup("a")))
}

func TestInstance_Complete(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	restore := clock.NowFunc
	clock.NowFunc = func() time.Time { return frozen }
	defer func() { clock.NowFunc = restore }()

	instance := NewInstance("inst-1", "approval", "REQ-1", "start", nil)
	assert.Equal(t, StatusActive, instance.GetStatus())
	assert.Equal(t, "start", instance.Step())

	instance.SetStep("review")
	assert.Equal(t, "review", instance.Step())

	instance.Complete()
	assert.Equal(t, StatusCompleted, instance.GetStatus())
	if assert.NotNil(t, instance.FinishedAt) {
		assert.True(t, frozen.Equal(*instance.FinishedAt))
	}

	// completing twice keeps the first finish time
	clock.NowFunc = func() time.Time { return frozen.Add(time.Hour) }
	instance.Complete()
	assert.True(t, frozen.Equal(*instance.FinishedAt))
}
