package forge

import "context"

// BeforeHook transforms the build intent (the caller's overrides) before the
// blueprint runs.
type BeforeHook func(o Overrides) (Overrides, error)

// AsyncBeforeHook is a BeforeHook that may block on I/O.
type AsyncBeforeHook func(ctx context.Context, o Overrides) (Overrides, error)

// AfterHook transforms a built instance.
type AfterHook[T any] func(v T) (T, error)

// AsyncAfterHook is an AfterHook that may block on I/O.
type AsyncAfterHook[T any] func(ctx context.Context, v T) (T, error)

// stage is one step of a pipeline. Exactly one of fn and asyncFn is set.
type stage[V any] struct {
	fn      func(V) (V, error)
	asyncFn func(context.Context, V) (V, error)
}

func (s stage[V]) call(ctx context.Context, v V) (V, error) {
	if s.asyncFn != nil {
		return s.asyncFn(ctx, v)
	}
	return s.fn(v)
}

// pipeline is an ordered, append-only list of stages. with never mutates the
// receiver, so factories derived from one another can share a prefix safely.
type pipeline[V any] []stage[V]

func (p pipeline[V]) with(s stage[V]) pipeline[V] {
	out := make(pipeline[V], len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

func (p pipeline[V]) async() bool {
	for _, s := range p {
		if s.asyncFn != nil {
			return true
		}
	}
	return false
}

// run applies the stages in registration order. Each stage completes before
// the next starts; the first error stops the pipeline and is returned as is.
func (p pipeline[V]) run(ctx context.Context, v V) (V, error) {
	for _, s := range p {
		if err := ctx.Err(); err != nil {
			return v, err
		}
		next, err := s.call(ctx, v)
		if err != nil {
			return v, err
		}
		v = next
	}
	return v, nil
}
