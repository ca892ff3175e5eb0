// Package storage holds the backends fixtures are persisted into: a key-value
// Backend (in-memory or bbolt) with document collections and repositories on
// top, and a SQLite store with ORM-style tables.
package storage

import "errors"

// Sentinel errors for storage operations.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidTableName   = errors.New("invalid table name")
	ErrEmptyKey           = errors.New("empty key")
)

// Backend stores raw values in named collections. Implementations choose
// nothing about encoding; Collection and Repository store JSON.
type Backend interface {
	// Collection operations
	CreateCollection(name string) error
	CollectionExists(name string) (bool, error)

	// KV operations within collections
	Put(collection, key string, value []byte) error
	Get(collection, key string) ([]byte, error)
	ForEach(collection string, fn func(key string, value []byte) error) error
	Count(collection string) (int, error)

	// Update runs fn in a read-write transaction. Writes are applied only if
	// fn returns nil.
	Update(fn func(tx Tx) error) error

	// Lifecycle
	Close() error
}

// Tx provides transactional access to a Backend.
type Tx interface {
	CreateCollection(name string) error
	// Collection returns nil if the collection does not exist.
	Collection(name string) TxCollection
}

// TxCollection is a collection within a transaction.
type TxCollection interface {
	Put(key string, value []byte) error
	Get(key string) []byte
}
