package forge

import (
	"context"
	"fmt"
)

// Adapter is the persistence boundary. The engine hands it built instances
// and returns its results unmodified.
type Adapter[T any] interface {
	Create(ctx context.Context, v T) (T, error)
	CreateMany(ctx context.Context, vs []T) (Created[T], error)
}

// Created is the result of a bulk create. Backends that return the stored
// rows fill Items; backends that only report a row count leave Items nil.
type Created[T any] struct {
	Items []T
	Count int
}

// AdapterKind names a storage idiom the engine can map onto a model.
type AdapterKind string

const (
	// AdapterDocument maps to InsertOne/InsertMany.
	AdapterDocument AdapterKind = "document"
	// AdapterRelational maps to Create/CreateMany, bulk returning a row count.
	AdapterRelational AdapterKind = "relational"
	// AdapterRepository maps to Save/SaveAll.
	AdapterRepository AdapterKind = "repository"
)

// DocumentModel is a document store collection.
type DocumentModel[T any] interface {
	InsertOne(ctx context.Context, doc T) (T, error)
	InsertMany(ctx context.Context, docs []T) ([]T, error)
}

// RelationalModel is an ORM-style table.
type RelationalModel[T any] interface {
	Create(ctx context.Context, row T) (T, error)
	CreateMany(ctx context.Context, rows []T) (int, error)
}

// RepositoryModel is a repository with save semantics.
type RepositoryModel[T any] interface {
	Save(ctx context.Context, entity T) (T, error)
	SaveAll(ctx context.Context, entities []T) ([]T, error)
}

// Binding configures persistence. A non-nil Adapter takes precedence over
// Kind and Model.
type Binding[T any] struct {
	Kind    AdapterKind
	Model   any
	Adapter Adapter[T]
}

type documentAdapter[T any] struct{ m DocumentModel[T] }

func (a documentAdapter[T]) Create(ctx context.Context, v T) (T, error) {
	return a.m.InsertOne(ctx, v)
}

func (a documentAdapter[T]) CreateMany(ctx context.Context, vs []T) (Created[T], error) {
	items, err := a.m.InsertMany(ctx, vs)
	return Created[T]{Items: items, Count: len(items)}, err
}

type relationalAdapter[T any] struct{ m RelationalModel[T] }

func (a relationalAdapter[T]) Create(ctx context.Context, v T) (T, error) {
	return a.m.Create(ctx, v)
}

func (a relationalAdapter[T]) CreateMany(ctx context.Context, vs []T) (Created[T], error) {
	n, err := a.m.CreateMany(ctx, vs)
	return Created[T]{Count: n}, err
}

type repositoryAdapter[T any] struct{ m RepositoryModel[T] }

func (a repositoryAdapter[T]) Create(ctx context.Context, v T) (T, error) {
	return a.m.Save(ctx, v)
}

func (a repositoryAdapter[T]) CreateMany(ctx context.Context, vs []T) (Created[T], error) {
	items, err := a.m.SaveAll(ctx, vs)
	return Created[T]{Items: items, Count: len(items)}, err
}

func resolveAdapter[T any](b Binding[T]) (Adapter[T], string, error) {
	if b.Adapter != nil {
		return b.Adapter, "custom", nil
	}

	ctx := map[string]any{"kind": string(b.Kind), "model": fmt.Sprintf("%T", b.Model)}
	switch b.Kind {
	case AdapterDocument:
		if m, ok := b.Model.(DocumentModel[T]); ok {
			return documentAdapter[T]{m}, string(b.Kind), nil
		}
	case AdapterRelational:
		if m, ok := b.Model.(RelationalModel[T]); ok {
			return relationalAdapter[T]{m}, string(b.Kind), nil
		}
	case AdapterRepository:
		if m, ok := b.Model.(RepositoryModel[T]); ok {
			return repositoryAdapter[T]{m}, string(b.Kind), nil
		}
	default:
		return nil, "", configurationError(fmt.Sprintf("unknown adapter %q", b.Kind), ctx)
	}
	return nil, "", configurationError(
		fmt.Sprintf("model %T does not implement the %s adapter", b.Model, b.Kind), ctx)
}

// Persist returns a factory bound to a storage backend. The receiver is not
// modified and shares its iteration counter with the result.
func (f *Factory[T]) Persist(b Binding[T]) (*Factory[T], error) {
	adapter, kind, err := resolveAdapter(b)
	if err != nil {
		return nil, err
	}
	c := f.clone()
	c.binding = adapter
	c.bindingKind = kind
	return c, nil
}

// Create builds one instance and forwards it to the bound adapter.
func (f *Factory[T]) Create(ctx context.Context, overrides ...Overrides) (T, error) {
	var zero T
	if f.binding == nil {
		return zero, configurationError(msgNoAdapter, map[string]any{"factory": f.name})
	}
	v, err := f.BuildAsync(ctx, overrides...)
	if err != nil {
		return zero, err
	}
	out, err := f.binding.Create(ctx, v)
	if err != nil {
		f.recorder.IncStageFailure(f.name, StagePersist)
		return out, err
	}
	f.recorder.AddPersisted(f.name, f.bindingKind, 1)
	return out, nil
}

// CreateMany builds size instances and forwards them to the bound adapter in
// a single bulk call.
func (f *Factory[T]) CreateMany(ctx context.Context, size int, overrides ...BatchOverrides) (Created[T], error) {
	if f.binding == nil {
		return Created[T]{}, configurationError(msgNoAdapter, map[string]any{"factory": f.name})
	}
	vs, err := f.BatchAsync(ctx, size, overrides...)
	if err != nil {
		return Created[T]{}, err
	}
	out, err := f.binding.CreateMany(ctx, vs)
	if err != nil {
		f.recorder.IncStageFailure(f.name, StagePersist)
		return out, err
	}
	f.recorder.AddPersisted(f.name, f.bindingKind, out.Count)
	f.logger.Debug("persisted batch",
		"factory", f.name,
		"adapter", f.bindingKind,
		"count", out.Count)
	return out, nil
}
