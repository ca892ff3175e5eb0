package storage

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BboltBackend implements Backend using bbolt. Collections map to buckets.
type BboltBackend struct {
	db *bolt.DB
}

// NewBboltBackend opens (or creates) a bbolt database at dbPath
func NewBboltBackend(dbPath string) (*BboltBackend, error) {
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	return &BboltBackend{db: db}, nil
}

// CreateCollection creates a bucket if it does not exist
func (b *BboltBackend) CreateCollection(name string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

// CollectionExists checks if a bucket exists
func (b *BboltBackend) CollectionExists(name string) (bool, error) {
	exists := false
	err := b.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket([]byte(name)) != nil
		return nil
	})
	return exists, err
}

// Put stores a value under key
func (b *BboltBackend) Put(collection, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		return bkt.Put([]byte(key), value)
	})
}

// Get returns the value under key, or nil if absent
func (b *BboltBackend) Get(collection, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		if v := bkt.Get([]byte(key)); v != nil {
			// Copy the value since it's only valid during the transaction
			value = clone(v)
		}
		return nil
	})
	return value, err
}

// ForEach iterates over a bucket in key order
func (b *BboltBackend) ForEach(collection string, fn func(key string, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		return bkt.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

// Count returns the number of keys in a bucket
func (b *BboltBackend) Count(collection string) (int, error) {
	n := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		n = bkt.Stats().KeyN
		return nil
	})
	return n, err
}

// Update executes fn within a read-write bbolt transaction
func (b *BboltBackend) Update(fn func(tx Tx) error) error {
	return b.db.Update(func(boltTx *bolt.Tx) error {
		return fn(&bboltTx{tx: boltTx})
	})
}

// Close closes the database
func (b *BboltBackend) Close() error {
	return b.db.Close()
}

// bboltTx wraps a bolt transaction
type bboltTx struct {
	tx *bolt.Tx
}

func (t *bboltTx) CreateCollection(name string) error {
	_, err := t.tx.CreateBucketIfNotExists([]byte(name))
	return err
}

func (t *bboltTx) Collection(name string) TxCollection {
	bkt := t.tx.Bucket([]byte(name))
	if bkt == nil {
		return nil
	}
	return &bboltCollection{bucket: bkt}
}

// bboltCollection wraps a bolt bucket
type bboltCollection struct {
	bucket *bolt.Bucket
}

func (c *bboltCollection) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return c.bucket.Put([]byte(key), value)
}

func (c *bboltCollection) Get(key string) []byte {
	if v := c.bucket.Get([]byte(key)); v != nil {
		return clone(v)
	}
	return nil
}
