// Package fixtures holds the built-in fixture definitions the forge CLI can
// generate or seed: action logs, metric samples, page visits, users with
// friends, admins and category trees.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"pkg.jsn.cam/forge/pkg/forge"
	"pkg.jsn.cam/forge/pkg/storage"
	"pkg.jsn.cam/forge/pkg/values"
)

// Fixture produces test data for one domain shape.
type Fixture interface {
	// Name is the registry key, also used as collection and table name.
	Name() string

	// Description returns a human-readable description of the data
	Description() string

	// DefaultCount returns the suggested default number of instances
	DefaultCount() int

	// Generate builds n instances without persisting them.
	Generate(ctx context.Context, n int) ([]any, error)

	// Seed builds n instances and persists them into t in one bulk call. It
	// returns the count reported by the storage adapter.
	Seed(ctx context.Context, t Target, n int) (int, error)
}

// Options configure the factories behind a fixture.
type Options struct {
	Values   *values.Provider
	MaxDepth int
	Logger   *slog.Logger
	Recorder forge.Recorder
}

func (o Options) provider() *values.Provider {
	if o.Values == nil {
		return values.Default()
	}
	return o.Values
}

func (o Options) factoryOptions(name string) []forge.Option {
	return []forge.Option{
		forge.WithName(name),
		forge.WithValues(o.provider()),
		forge.WithMaxDepth(o.MaxDepth),
		forge.WithLogger(o.Logger),
		forge.WithRecorder(o.Recorder),
	}
}

// Target is where Seed persists. SQL takes precedence over Backend.
type Target struct {
	Backend storage.Backend
	SQL     *storage.SQLStore
}

// ErrNoTarget is returned by Seed when the target has no store.
var ErrNoTarget = errors.New("fixtures: target has no store")

// fixture is the Fixture implementation shared by every definition.
type fixture[T any] struct {
	name         string
	description  string
	defaultCount int
	opts         Options

	factory func(o Options) (*forge.Factory[T], error)

	// key makes Seed use a repository on key-value backends.
	key storage.KeyFunc[T]
	// adapter replaces the stock binding for key-value backends.
	adapter func(b storage.Backend, name string) (forge.Adapter[T], error)
}

func (f *fixture[T]) Name() string        { return f.name }
func (f *fixture[T]) Description() string { return f.description }
func (f *fixture[T]) DefaultCount() int   { return f.defaultCount }

func (f *fixture[T]) Generate(ctx context.Context, n int) ([]any, error) {
	fac, err := f.factory(f.opts)
	if err != nil {
		return nil, err
	}
	vs, err := fac.BatchAsync(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", f.name, err)
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out, nil
}

func (f *fixture[T]) Seed(ctx context.Context, t Target, n int) (int, error) {
	fac, err := f.factory(f.opts)
	if err != nil {
		return 0, err
	}
	binding, err := f.binding(ctx, t)
	if err != nil {
		return 0, err
	}
	bound, err := fac.Persist(binding)
	if err != nil {
		return 0, err
	}
	created, err := bound.CreateMany(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", f.name, err)
	}
	return created.Count, nil
}

func (f *fixture[T]) binding(ctx context.Context, t Target) (forge.Binding[T], error) {
	switch {
	case t.SQL != nil:
		table, err := storage.NewTable[T](ctx, t.SQL, f.name)
		if err != nil {
			return forge.Binding[T]{}, err
		}
		return forge.Binding[T]{Kind: forge.AdapterRelational, Model: table}, nil
	case t.Backend == nil:
		return forge.Binding[T]{}, ErrNoTarget
	case f.adapter != nil:
		a, err := f.adapter(t.Backend, f.name)
		if err != nil {
			return forge.Binding[T]{}, err
		}
		return forge.Binding[T]{Adapter: a}, nil
	case f.key != nil:
		repo, err := storage.NewRepository(t.Backend, f.name, f.key)
		if err != nil {
			return forge.Binding[T]{}, err
		}
		return forge.Binding[T]{Kind: forge.AdapterRepository, Model: repo}, nil
	default:
		coll, err := storage.NewCollection[T](t.Backend, f.name)
		if err != nil {
			return forge.Binding[T]{}, err
		}
		return forge.Binding[T]{Kind: forge.AdapterDocument, Model: coll}, nil
	}
}

// Registry maps fixture names to constructors.
var Registry = map[string]func(Options) Fixture{
	"actions":    newActions,
	"metrics":    newMetrics,
	"visits":     newVisits,
	"users":      newUsers,
	"admins":     newAdmins,
	"categories": newCategories,
}

// Get returns a fixture by name
func Get(name string, opts Options) (Fixture, error) {
	ctor, exists := Registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown fixture: %s", name)
	}
	return ctor(opts), nil
}

// List returns all available fixture names, sorted
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
