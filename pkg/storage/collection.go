package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Collection is a document collection over a Backend. Documents are stored as
// JSON under generated UUID keys.
type Collection[T any] struct {
	backend Backend
	name    string
}

// NewCollection returns the collection called name, creating it if needed.
func NewCollection[T any](b Backend, name string) (*Collection[T], error) {
	if err := b.CreateCollection(name); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return &Collection[T]{backend: b, name: name}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// InsertOne stores doc and returns it unchanged.
func (c *Collection[T]) InsertOne(ctx context.Context, doc T) (T, error) {
	if err := ctx.Err(); err != nil {
		return doc, err
	}
	data, err := encodeJSON(doc)
	if err != nil {
		return doc, err
	}
	if err := c.backend.Put(c.name, uuid.NewString(), data); err != nil {
		return doc, fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return doc, nil
}

// InsertMany stores docs in a single transaction. Either all documents are
// stored or none are.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err := c.backend.Update(func(tx Tx) error {
		coll := tx.Collection(c.name)
		if coll == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, c.name)
		}
		for _, doc := range docs {
			data, err := encodeJSON(doc)
			if err != nil {
				return err
			}
			if err := coll.Put(uuid.NewString(), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert many into %s: %w", c.name, err)
	}
	return docs, nil
}

// All decodes every document in the collection. Order is backend defined.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	err := c.backend.ForEach(c.name, func(_ string, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var doc T
		if err := decodeJSON(value, &doc); err != nil {
			return err
		}
		out = append(out, doc)
		return nil
	})
	return out, err
}

// Count returns the number of stored documents.
func (c *Collection[T]) Count() (int, error) {
	return c.backend.Count(c.name)
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
