package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// KeyFunc extracts the primary key of an entity. An empty key makes the
// repository generate one.
type KeyFunc[T any] func(T) string

// Repository saves entities by key over a Backend. Saving an entity whose key
// already exists replaces it.
type Repository[T any] struct {
	backend Backend
	name    string
	key     KeyFunc[T]
}

// NewRepository returns a repository over the collection called name.
func NewRepository[T any](b Backend, name string, key KeyFunc[T]) (*Repository[T], error) {
	if err := b.CreateCollection(name); err != nil {
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}
	if key == nil {
		key = func(T) string { return "" }
	}
	return &Repository[T]{backend: b, name: name, key: key}, nil
}

func (r *Repository[T]) keyOf(entity T) string {
	if k := r.key(entity); k != "" {
		return k
	}
	return uuid.NewString()
}

// Save upserts entity and returns it unchanged.
func (r *Repository[T]) Save(ctx context.Context, entity T) (T, error) {
	if err := ctx.Err(); err != nil {
		return entity, err
	}
	data, err := encodeJSON(entity)
	if err != nil {
		return entity, err
	}
	if err := r.backend.Put(r.name, r.keyOf(entity), data); err != nil {
		return entity, fmt.Errorf("save into %s: %w", r.name, err)
	}
	return entity, nil
}

// SaveAll upserts entities in a single transaction.
func (r *Repository[T]) SaveAll(ctx context.Context, entities []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err := r.backend.Update(func(tx Tx) error {
		coll := tx.Collection(r.name)
		if coll == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, r.name)
		}
		for _, e := range entities {
			data, err := encodeJSON(e)
			if err != nil {
				return err
			}
			if err := coll.Put(r.keyOf(e), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save all into %s: %w", r.name, err)
	}
	return entities, nil
}

// Get returns the entity stored under key. The boolean is false if there is none.
func (r *Repository[T]) Get(key string) (T, bool, error) {
	var entity T
	data, err := r.backend.Get(r.name, key)
	if err != nil || data == nil {
		return entity, false, err
	}
	if err := decodeJSON(data, &entity); err != nil {
		return entity, false, err
	}
	return entity, true, nil
}

// Count returns the number of stored entities.
func (r *Repository[T]) Count() (int, error) {
	return r.backend.Count(r.name)
}
