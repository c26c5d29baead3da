package delegate

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/viant/structology/conv"
	"github.com/viant/x"
)

// Config holds registry tunables.
type Config struct {
	// CallTimeout bounds every external-collaborator call a delegate makes.
	CallTimeout time.Duration
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{CallTimeout: 5 * time.Second}
}

// Registry maps delegate keys to implementations and keeps the registered
// input types for introspection.
type Registry struct {
	config    Config
	converter *conv.Converter
	types     *x.Registry
	delegates map[string]Delegate
	mux       sync.RWMutex
}

// Option customises the registry.
type Option func(*Registry)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(r *Registry) { r.config = config }
}

// NewRegistry creates an empty delegate registry.
func NewRegistry(options ...Option) *Registry {
	converterOptions := conv.DefaultOptions()
	converterOptions.ClonePointerData = true
	converterOptions.IgnoreUnmapped = true
	ret := &Registry{
		config:    DefaultConfig(),
		converter: conv.NewConverter(converterOptions),
		types:     x.NewRegistry(),
		delegates: map[string]Delegate{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Register adds a delegate under its name, replacing any previous one, and
// records its input type.
func (r *Registry) Register(d Delegate) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.delegates[d.Name()] = d
	if inputType := d.Input(); inputType != nil {
		r.types.Register(x.NewType(inputType, x.WithName(d.Name())))
	}
}

// Lookup returns a delegate by key, or nil.
func (r *Registry) Lookup(key string) Delegate {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.delegates[key]
}

// InputType returns the input type a registered delegate declared, or nil.
func (r *Registry) InputType(key string) reflect.Type {
	if d := r.Lookup(key); d != nil {
		return d.Input()
	}
	return nil
}

// Types exposes the registered input types for schema introspection; entries
// are keyed by x.Type.Key (package path plus delegate name).
func (r *Registry) Types() *x.Registry { return r.types }

// Invoke runs the delegate registered under key against the supplied
// execution context. Any error, including an unknown key or an input
// conversion problem, surfaces as *Failure.
func (r *Registry) Invoke(ctx context.Context, key string, execCtx *Context) error {
	d := r.Lookup(key)
	if d == nil {
		return &Failure{Delegate: key, Err: fmt.Errorf("delegate not registered")}
	}
	var input interface{}
	if inputType := r.InputType(key); inputType != nil {
		input = reflect.New(inputType).Interface()
		if err := r.converter.Convert(execCtx.Snapshot().Interface(), input); err != nil {
			return &Failure{Delegate: key, Err: fmt.Errorf("failed to convert input: %w", err)}
		}
	}
	if err := d.Execute(ctx, input, execCtx); err != nil {
		return &Failure{Delegate: key, Err: err}
	}
	return nil
}

// CallTimeout exposes the configured external-call bound; the engine feeds
// it into every delegate context it builds.
func (r *Registry) CallTimeout() time.Duration { return r.config.CallTimeout }
