package pool

import (
	"context"
)

// Factory creates and destroys the objects a pool manages. The pool
// never introspects the objects; any type works. Create and Destroy are
// only ever invoked from the pool's allocator goroutine, so a factory
// needs no internal synchronisation for the pool's sake.
//
// A Create error is captured as poison on the slot and surfaced to the
// next claimer rather than crashing the allocator; the pool keeps
// retrying the slot, so transient failures heal on their own.
type Factory[T any] interface {
	Create(ctx context.Context) (T, error)
	Destroy(ctx context.Context, obj T) error
}

// Recreator is an optional Factory extension. When a factory implements
// it, the allocator hands the previous object to Recreate instead of
// doing Destroy-then-Create, letting implementations reuse expensive
// parts of the old object.
type Recreator[T any] interface {
	Recreate(ctx context.Context, old T) (T, error)
}

// FuncFactory adapts plain functions to the Factory interface.
// DestroyFunc may be nil for objects that need no teardown.
type FuncFactory[T any] struct {
	CreateFunc  func(ctx context.Context) (T, error)
	DestroyFunc func(ctx context.Context, obj T) error
}

// Create implements Factory.
func (f FuncFactory[T]) Create(ctx context.Context) (T, error) {
	return f.CreateFunc(ctx)
}

// Destroy implements Factory.
func (f FuncFactory[T]) Destroy(ctx context.Context, obj T) error {
	if f.DestroyFunc == nil {
		return nil
	}
	return f.DestroyFunc(ctx, obj)
}
