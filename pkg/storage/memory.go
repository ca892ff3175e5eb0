package storage

import (
	"fmt"
	"sync"
)

// MemoryBackend implements Backend using in-memory maps (not persistent)
type MemoryBackend struct {
	collections map[string]map[string][]byte
	mu          sync.RWMutex
}

// NewMemoryBackend creates a new in-memory storage backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		collections: make(map[string]map[string][]byte),
	}
}

// CreateCollection creates a collection if it does not exist
func (m *MemoryBackend) CreateCollection(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[name]; !exists {
		m.collections[name] = make(map[string][]byte)
	}

	return nil
}

// CollectionExists checks if a collection exists
func (m *MemoryBackend) CollectionExists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.collections[name]

	return exists, nil
}

// Put stores a value under key
func (m *MemoryBackend) Put(collection, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, exists := m.collections[collection]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	// Copy value to prevent external modifications
	coll[key] = clone(value)

	return nil
}

// Get returns the value under key, or nil if absent
func (m *MemoryBackend) Get(collection, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, exists := m.collections[collection]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	value, exists := coll[key]
	if !exists {
		return nil, nil
	}

	return clone(value), nil
}

// ForEach iterates over all key-value pairs in a collection in unspecified order
func (m *MemoryBackend) ForEach(collection string, fn func(key string, value []byte) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, exists := m.collections[collection]
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	for k, v := range coll {
		if err := fn(k, v); err != nil {
			return err
		}
	}

	return nil
}

// Count returns the number of keys in a collection
func (m *MemoryBackend) Count(collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, exists := m.collections[collection]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	return len(coll), nil
}

// Update runs fn with the backend locked. Writes are staged and applied only
// when fn succeeds.
func (m *MemoryBackend) Update(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		backend: m,
		created: make(map[string]bool),
		pending: make(map[string]map[string][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for name := range tx.created {
		if _, exists := m.collections[name]; !exists {
			m.collections[name] = make(map[string][]byte)
		}
	}
	for name, writes := range tx.pending {
		for k, v := range writes {
			m.collections[name][k] = v
		}
	}

	return nil
}

// Close is a no-op for memory backend
func (m *MemoryBackend) Close() error {
	return nil
}

// memoryTx stages writes against a locked MemoryBackend
type memoryTx struct {
	backend *MemoryBackend
	created map[string]bool
	pending map[string]map[string][]byte
}

func (t *memoryTx) exists(name string) bool {
	_, committed := t.backend.collections[name]
	return committed || t.created[name]
}

func (t *memoryTx) CreateCollection(name string) error {
	if !t.exists(name) {
		t.created[name] = true
	}
	return nil
}

func (t *memoryTx) Collection(name string) TxCollection {
	if !t.exists(name) {
		return nil
	}
	return &memoryTxCollection{tx: t, name: name}
}

type memoryTxCollection struct {
	tx   *memoryTx
	name string
}

func (c *memoryTxCollection) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	writes, ok := c.tx.pending[c.name]
	if !ok {
		writes = make(map[string][]byte)
		c.tx.pending[c.name] = writes
	}
	writes[key] = clone(value)
	return nil
}

func (c *memoryTxCollection) Get(key string) []byte {
	if v, ok := c.tx.pending[c.name][key]; ok {
		return clone(v)
	}
	if v, ok := c.tx.backend.collections[c.name][key]; ok {
		return clone(v)
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
