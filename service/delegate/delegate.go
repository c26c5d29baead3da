// Package delegate implements the automated-step callbacks: the registry
// that maps delegate keys to implementations, the execution context handed
// to a delegate, and the built-in delegates of the door installation
// process.
package delegate

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/samrum/doorflow/model/state"
)

// Failure wraps any error raised while executing an automated step,
// including external-collaborator timeouts. The engine aborts the current
// drive call without committing the step when it sees one.
type Failure struct {
	Delegate string
	Err      error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("delegate %s failed: %v", e.Delegate, e.Err)
}

func (e *Failure) Unwrap() error { return e.Err }

// Delegate is a pluggable callback implementing an automated step. Input
// describes the struct the variable snapshot is converted into before
// Execute runs; it may be nil for delegates that read the context directly.
type Delegate interface {
	Name() string
	Input() reflect.Type
	Execute(ctx context.Context, input interface{}, execCtx *Context) error
}

// Context is the view of an instance offered to a delegate. Reads come from
// a snapshot taken before the delegate runs; writes are staged and the
// engine commits them only when the delegate returns without error.
type Context struct {
	InstanceID    string
	DefinitionKey string
	BusinessKey   string

	snapshot    state.Variables
	writes      state.Variables
	callTimeout time.Duration
}

// NewContext creates a delegate execution context over a variable snapshot.
func NewContext(instanceID, definitionKey, businessKey string, snapshot state.Variables, callTimeout time.Duration) *Context {
	return &Context{
		InstanceID:    instanceID,
		DefinitionKey: definitionKey,
		BusinessKey:   businessKey,
		snapshot:      snapshot,
		writes:        state.Variables{},
		callTimeout:   callTimeout,
	}
}

// Lookup returns a variable; staged writes shadow the snapshot.
func (c *Context) Lookup(name string) state.Value {
	if value, ok := c.writes[name]; ok {
		return value
	}
	return c.snapshot.Lookup(name)
}

// Set stages a variable write.
func (c *Context) Set(name string, value state.Value) {
	c.writes[name] = value
}

// SetValue coerces and stages a variable write.
func (c *Context) SetValue(name string, value interface{}) error {
	coerced, err := state.Coerce(value)
	if err != nil {
		return &state.CoercionError{Name: name, Err: err}
	}
	c.writes[name] = coerced
	return nil
}

// Snapshot returns the variables the delegate started from.
func (c *Context) Snapshot() state.Variables { return c.snapshot }

// Writes returns the staged writes.
func (c *Context) Writes() state.Variables { return c.writes }

// CallContext derives a context for an external-collaborator call, bounded
// by the registry's call timeout. Delegates must use it for every leaf call
// so that a hung collaborator surfaces as a Failure instead of stalling the
// drive loop.
func (c *Context) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}
