package dao

import (
	"context"
)

// Service is a generic persistence contract shared by the live instance
// store, the task queue and the history archive. Implementations may be
// in-memory or backed by an external database.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
