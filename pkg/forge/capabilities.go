package forge

import (
	"context"

	"pkg.jsn.cam/forge/pkg/values"
)

// Capabilities is the handle passed to a blueprint. It embeds the value
// provider and exposes depth-aware access to the blueprint's own factory.
//
// A handle is created per blueprint invocation and records how deeply the
// invocation is nested inside the current top-level call, so concurrent
// top-level calls never share depth state.
type Capabilities[T any] struct {
	*values.Provider

	factory *Factory[T]
	ctx     context.Context
	level   int
	async   bool
}

// Options returns the factory options.
func (c *Capabilities[T]) Options() Options {
	return c.factory.opts
}

// Depth reports the nesting level of the running blueprint. The top-level call
// runs at depth 0.
func (c *Capabilities[T]) Depth() int {
	return c.level
}

// Context returns the context of the running call. Sync builds carry
// context.Background().
func (c *Capabilities[T]) Context() context.Context {
	return c.ctx
}

// Build produces a nested instance from the same factory. It returns nil once
// the factory's MaxDepth is reached.
func (c *Capabilities[T]) Build(overrides ...Overrides) (*T, error) {
	return c.build(c.async, overrides)
}

// BuildAsync is Build for factories with async stages. It uses the context of
// the enclosing call.
func (c *Capabilities[T]) BuildAsync(overrides ...Overrides) (*T, error) {
	return c.build(true, overrides)
}

// Batch produces size nested instances. It returns a nil slice once the
// factory's MaxDepth is reached.
func (c *Capabilities[T]) Batch(size int, overrides ...BatchOverrides) ([]T, error) {
	return c.batch(c.async, size, overrides)
}

// BatchAsync is Batch for factories with async stages.
func (c *Capabilities[T]) BatchAsync(size int, overrides ...BatchOverrides) ([]T, error) {
	return c.batch(true, size, overrides)
}

func (c *Capabilities[T]) build(async bool, overrides []Overrides) (*T, error) {
	next, ok := c.factory.descend(c.level)
	if !ok {
		return nil, nil
	}
	v, err := c.factory.produce(c.ctx, next, async, mergeOverrides(overrides))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Capabilities[T]) batch(async bool, size int, overrides []BatchOverrides) ([]T, error) {
	if err := validateBatch(size, overrides); err != nil {
		return nil, err
	}
	next, ok := c.factory.descend(c.level)
	if !ok {
		return nil, nil
	}
	return c.factory.batch(c.ctx, next, async, size, overrides)
}

// descend returns the level for a nested call from level, or false when the
// call would reach MaxDepth.
func (f *Factory[T]) descend(level int) (int, bool) {
	next := level + 1
	if f.opts.MaxDepth > 0 && next >= f.opts.MaxDepth {
		f.recorder.IncTruncated(f.name)
		f.logger.Debug("depth limit reached",
			"factory", f.name,
			"depth", next,
			"max_depth", f.opts.MaxDepth)
		return level, false
	}
	return next, true
}
