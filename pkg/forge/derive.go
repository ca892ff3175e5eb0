package forge

import (
	"context"
	"maps"
	"slices"
	"sync/atomic"
)

// Shape maps output fields to the values composed over a parent blueprint.
// A value may be a plain value, a nested *Factory (built once per instance) or
// the result of BatchOf.
type Shape map[string]any

// composable is a shape value resolved per instance.
type composable interface {
	async() bool
	resolve(ctx context.Context, async bool) (any, error)
}

func (f *Factory[T]) async() bool { return f.Async() }

func (f *Factory[T]) resolve(ctx context.Context, async bool) (any, error) {
	return f.produce(ctx, 0, async, make(Overrides))
}

type batchOf[T any] struct {
	factory *Factory[T]
	size    int
}

// BatchOf is a shape value that batches size instances of f per composed
// instance.
func BatchOf[T any](f *Factory[T], size int) any {
	return batchOf[T]{factory: f, size: size}
}

func (b batchOf[T]) async() bool { return b.factory.Async() }

func (b batchOf[T]) resolve(ctx context.Context, async bool) (any, error) {
	if err := validateBatch(b.size, nil); err != nil {
		return nil, err
	}
	return b.factory.batch(ctx, 0, async, b.size, nil)
}

// derive copies the construction settings of f for a new, independent factory.
func derive[T, U any](f *Factory[T]) *Factory[U] {
	s := f.settings
	if s.name == typeName[T]() {
		s.name = typeName[U]()
	}
	return &Factory[U]{settings: s, counter: new(atomic.Int64)}
}

// Extend returns a new factory of U with a replaced blueprint. Options, value
// provider, logger and recorder carry over; hooks and bindings do not.
func Extend[T, U any](f *Factory[T], bp Blueprint[U]) *Factory[U] {
	d := derive[T, U](f)
	d.blueprint = bp
	return d
}

// ExtendAsync is Extend with an asynchronous blueprint.
func ExtendAsync[T, U any](f *Factory[T], bp AsyncBlueprint[U]) *Factory[U] {
	d := derive[T, U](f)
	d.asyncBlueprint = bp
	return d
}

// Extend is Extend for a blueprint of the same type.
func (f *Factory[T]) Extend(bp Blueprint[T]) *Factory[T] {
	return Extend(f, bp)
}

// Compose returns a new factory of U whose output is the parent blueprint's
// output shallow-merged with shape. Hooks of f are not applied. The result is
// asynchronous when f or any nested factory in shape is.
func Compose[T, U any](f *Factory[T], shape Shape) *Factory[U] {
	shape = maps.Clone(shape)
	d := derive[T, U](f)

	async := f.asyncBlueprint != nil
	for _, v := range shape {
		if c, ok := v.(composable); ok && c.async() {
			async = true
		}
	}

	parent := f.asyncBlueprint
	if parent == nil {
		bp := f.blueprint
		parent = func(_ context.Context, c *Capabilities[T], i int) (T, error) {
			return bp(c, i)
		}
	}

	compose := func(ctx context.Context, c *Capabilities[U], i int) (U, error) {
		var zero U
		pc := &Capabilities[T]{
			Provider: c.Provider,
			factory:  f,
			ctx:      ctx,
			level:    c.level,
			async:    c.async,
		}
		base, err := parent(ctx, pc, i)
		if err != nil {
			return zero, err
		}
		resolved, err := resolveShape(ctx, shape, c.async)
		if err != nil {
			return zero, err
		}
		if same, ok := any(base).(U); ok {
			return applyOverrides(same, resolved)
		}
		fields, err := toFields(base)
		if err != nil {
			return zero, err
		}
		maps.Copy(fields, resolved)
		return decodeFields[U](fields)
	}

	if async {
		d.asyncBlueprint = compose
	} else {
		d.blueprint = func(c *Capabilities[U], i int) (U, error) {
			return compose(c.ctx, c, i)
		}
	}
	return d
}

// Compose is Compose for a result of the same type.
func (f *Factory[T]) Compose(shape Shape) *Factory[T] {
	return Compose[T, T](f, shape)
}

func resolveShape(ctx context.Context, shape Shape, async bool) (Overrides, error) {
	out := make(Overrides, len(shape))
	for _, k := range slices.Sorted(maps.Keys(shape)) {
		v := shape[k]
		if c, ok := v.(composable); ok {
			built, err := c.resolve(ctx, async)
			if err != nil {
				return nil, err
			}
			v = built
		}
		out[k] = v
	}
	return out, nil
}

// Use invokes fn with args. It gives blueprints one spelling for calling into
// other factories, e.g. forge.Use(users.Build, forge.Overrides{"role": "admin"}).
func Use[A, R any](fn func(...A) (R, error), args ...A) (R, error) {
	return fn(args...)
}
