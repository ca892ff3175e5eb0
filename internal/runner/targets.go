package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pkg.jsn.cam/forge/internal/config"
	"pkg.jsn.cam/forge/internal/fixtures"
	"pkg.jsn.cam/forge/pkg/storage"
)

// Targets opens each store once per run. bbolt holds an exclusive file lock,
// so jobs sharing a path must share the handle.
type Targets struct {
	mu     sync.Mutex
	open   map[string]fixtures.Target
	closer []func() error
}

// NewTargets creates an empty target cache.
func NewTargets() *Targets {
	return &Targets{open: make(map[string]fixtures.Target)}
}

// Open returns the target for store kind at path, opening it on first use.
func (t *Targets) Open(kind, path string) (fixtures.Target, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := kind + ":" + path
	if target, ok := t.open[key]; ok {
		return target, nil
	}

	var target fixtures.Target
	switch kind {
	case config.StoreMemory:
		target.Backend = storage.NewMemoryBackend()
		t.closer = append(t.closer, target.Backend.Close)
	case config.StoreBbolt:
		if err := ensureDir(path); err != nil {
			return target, err
		}
		b, err := storage.NewBboltBackend(path)
		if err != nil {
			return target, err
		}
		target.Backend = b
		t.closer = append(t.closer, b.Close)
	case config.StoreSQLite:
		if err := ensureDir(path); err != nil {
			return target, err
		}
		s, err := storage.NewSQLStore(path)
		if err != nil {
			return target, err
		}
		target.SQL = s
		t.closer = append(t.closer, s.Close)
	default:
		return target, fmt.Errorf("unknown store %q", kind)
	}

	t.open[key] = target
	return target, nil
}

// Close closes every opened store.
func (t *Targets) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, c := range t.closer {
		errs = append(errs, c())
	}
	t.closer = nil
	clear(t.open)
	return errors.Join(errs...)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
