package definition

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/samrum/doorflow/model"
)

const approvalYAML = `
key: approval
name: Approval
start: check
steps:
  - id: check
    kind: automated
    delegate: checkRequest
  - id: route
    kind: exclusiveGateway
    gateway:
      branches:
        - when: ${valid == false}
          to: done
      default: review
  - id: review
    kind: humanTask
    task:
      name: Review request
      assignee: ${reviewerId}
  - id: done
    kind: end
transitions:
  - from: check
    to: route
  - from: review
    to: done
`

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/doorflow/approval.yaml"
	err := fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(approvalYAML))
	assert.Nil(t, err)

	loader := NewLoader()
	def, err := loader.Load(ctx, URL)
	assert.Nil(t, err)
	if !assert.NotNil(t, def) {
		return
	}
	assert.Equal(t, "approval", def.Key)
	assert.Equal(t, "check", def.Start)
	assert.Len(t, def.Steps, 4)
	assert.Equal(t, model.StepGateway, def.Step("route").Kind)
	assert.Equal(t, "review", def.Step("route").Gateway.Default)
	assert.Equal(t, "${reviewerId}", def.Step("review").Task.Assignee)

	// the loaded document registers like a programmatic definition
	srv := New()
	handle, err := srv.LoadAndRegister(ctx, loader, URL)
	assert.Nil(t, err)
	assert.NotNil(t, handle)
}

func TestLoader_Errors(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load(context.Background(), "mem://localhost/doorflow/missing.yaml")
	assert.NotNil(t, err)

	_, err = loader.Decode([]byte("key: [broken"))
	assert.NotNil(t, err)
}
