package forge

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"
)

// Blueprint produces one candidate instance per invocation. iteration is the
// factory-wide count of instances produced before this one.
type Blueprint[T any] func(c *Capabilities[T], iteration int) (T, error)

// AsyncBlueprint is a Blueprint that may block on I/O. Factories built from
// one can only be driven through the async entry points.
type AsyncBlueprint[T any] func(ctx context.Context, c *Capabilities[T], iteration int) (T, error)

// Factory builds instances of T from a blueprint.
//
// Registering hooks or a persistence binding returns a new Factory and leaves
// the receiver untouched. Values derived that way share the iteration counter;
// Extend and Compose start a new one. A Factory is safe for concurrent use.
type Factory[T any] struct {
	settings

	blueprint      Blueprint[T]
	asyncBlueprint AsyncBlueprint[T]

	before pipeline[Overrides]
	after  pipeline[T]

	binding     Adapter[T]
	bindingKind string

	counter *atomic.Int64
}

// New creates a factory from a synchronous blueprint.
func New[T any](bp Blueprint[T], opts ...Option) *Factory[T] {
	return &Factory[T]{
		settings:  newSettings(typeName[T](), opts),
		blueprint: bp,
		counter:   new(atomic.Int64),
	}
}

// NewAsync creates a factory from an asynchronous blueprint.
func NewAsync[T any](bp AsyncBlueprint[T], opts ...Option) *Factory[T] {
	return &Factory[T]{
		settings:       newSettings(typeName[T](), opts),
		asyncBlueprint: bp,
		counter:        new(atomic.Int64),
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Name returns the factory name used in logs and metrics.
func (f *Factory[T]) Name() string { return f.name }

// Named returns a factory reporting under name. The iteration counter is shared
// with the receiver.
func (f *Factory[T]) Named(name string) *Factory[T] {
	c := f.clone()
	c.name = name
	return c
}

// Options returns the factory options.
func (f *Factory[T]) Options() Options { return f.opts }

// Async reports whether the blueprint or any hook is asynchronous.
func (f *Factory[T]) Async() bool {
	return f.asyncBlueprint != nil || f.before.async() || f.after.async()
}

func (f *Factory[T]) clone() *Factory[T] {
	c := *f
	return &c
}

// BeforeBuild returns a factory that runs hook after the existing before hooks.
func (f *Factory[T]) BeforeBuild(hook BeforeHook) *Factory[T] {
	c := f.clone()
	c.before = f.before.with(stage[Overrides]{fn: hook})
	return c
}

// BeforeBuildAsync is BeforeBuild for an asynchronous hook.
func (f *Factory[T]) BeforeBuildAsync(hook AsyncBeforeHook) *Factory[T] {
	c := f.clone()
	c.before = f.before.with(stage[Overrides]{asyncFn: hook})
	return c
}

// AfterBuild returns a factory that runs hook after the existing after hooks.
func (f *Factory[T]) AfterBuild(hook AfterHook[T]) *Factory[T] {
	c := f.clone()
	c.after = f.after.with(stage[T]{fn: hook})
	return c
}

// AfterBuildAsync is AfterBuild for an asynchronous hook.
func (f *Factory[T]) AfterBuildAsync(hook AsyncAfterHook[T]) *Factory[T] {
	c := f.clone()
	c.after = f.after.with(stage[T]{asyncFn: hook})
	return c
}

// Build produces one instance synchronously. It fails with a configuration
// error if the blueprint or any hook is asynchronous.
func (f *Factory[T]) Build(overrides ...Overrides) (T, error) {
	return f.produce(context.Background(), 0, false, mergeOverrides(overrides))
}

// BuildAsync produces one instance, running sync and async stages in
// registration order. ctx is checked between stages.
func (f *Factory[T]) BuildAsync(ctx context.Context, overrides ...Overrides) (T, error) {
	return f.produce(ctx, 0, true, mergeOverrides(overrides))
}

// Batch produces size instances in order. Pass Overrides to apply the same
// override to every element or Each to apply overrides by index.
func (f *Factory[T]) Batch(size int, overrides ...BatchOverrides) ([]T, error) {
	if err := validateBatch(size, overrides); err != nil {
		return nil, err
	}
	return f.batch(context.Background(), 0, false, size, overrides)
}

// BatchAsync is Batch through the async pipeline.
func (f *Factory[T]) BatchAsync(ctx context.Context, size int, overrides ...BatchOverrides) ([]T, error) {
	if err := validateBatch(size, overrides); err != nil {
		return nil, err
	}
	return f.batch(ctx, 0, true, size, overrides)
}

func validateBatch(size int, overrides []BatchOverrides) error {
	if size < 0 {
		return validationError(msgBatchSize, map[string]any{"size": size})
	}
	for _, o := range overrides {
		if each, ok := o.(Each); ok && len(each) > size {
			return validationError("Overrides length exceeds batch size",
				map[string]any{"size": size, "overrides": len(each)})
		}
	}
	return nil
}

func (f *Factory[T]) batch(ctx context.Context, level int, async bool, size int, overrides []BatchOverrides) ([]T, error) {
	out := make([]T, 0, size)
	for i := 0; i < size; i++ {
		v, err := f.produce(ctx, level, async, batchOverridesAt(overrides, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// produce runs one pass of the pipeline: before hooks, blueprint, override
// merge, after hooks.
func (f *Factory[T]) produce(ctx context.Context, level int, async bool, intent Overrides) (T, error) {
	var zero T
	mode := ModeSync
	if async {
		mode = ModeAsync
	} else if f.Async() {
		return zero, configurationError(
			"factory has asynchronous stages; use BuildAsync",
			map[string]any{"factory": f.name})
	}
	start := time.Now()

	intent, err := f.before.run(ctx, intent)
	if err != nil {
		f.recorder.IncStageFailure(f.name, StageBefore)
		return zero, err
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	iteration := int(f.counter.Add(1) - 1)
	caps := &Capabilities[T]{
		Provider: f.values,
		factory:  f,
		ctx:      ctx,
		level:    level,
		async:    async,
	}
	var v T
	if f.asyncBlueprint != nil {
		v, err = f.asyncBlueprint(ctx, caps, iteration)
	} else {
		v, err = f.blueprint(caps, iteration)
	}
	if err != nil {
		f.recorder.IncStageFailure(f.name, StageBlueprint)
		return zero, err
	}

	v, err = applyOverrides(v, intent)
	if err != nil {
		f.recorder.IncStageFailure(f.name, StageMerge)
		return zero, err
	}

	v, err = f.after.run(ctx, v)
	if err != nil {
		f.recorder.IncStageFailure(f.name, StageAfter)
		return zero, err
	}

	elapsed := time.Since(start)
	f.recorder.ObserveBuild(f.name, mode, elapsed)
	f.logger.Debug("built instance",
		"factory", f.name,
		"mode", mode,
		"iteration", iteration,
		"depth", level,
		"duration", elapsed)
	return v, nil
}
