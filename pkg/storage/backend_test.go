package storage

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// backendTestSuite runs a comprehensive test suite against any Backend implementation
func backendTestSuite(t *testing.T, newBackend func() (Backend, func(), error)) {
	open := func(t *testing.T) Backend {
		t.Helper()
		backend, cleanup, err := newBackend()
		if err != nil {
			t.Fatalf("failed to create backend: %v", err)
		}
		t.Cleanup(cleanup)
		return backend
	}

	t.Run("CreateCollection", func(t *testing.T) {
		backend := open(t)

		if err := backend.CreateCollection("test"); err != nil {
			t.Fatalf("CreateCollection failed: %v", err)
		}

		exists, err := backend.CollectionExists("test")
		if err != nil {
			t.Fatalf("CollectionExists failed: %v", err)
		}
		if !exists {
			t.Error("Collection should exist after creation")
		}

		// Idempotent
		if err := backend.CreateCollection("test"); err != nil {
			t.Errorf("CreateCollection should be idempotent: %v", err)
		}
	})

	t.Run("PutAndGet", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")

		value := []byte("value1")
		if err := backend.Put("test", "key1", value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := backend.Get("test", "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, value) {
			t.Errorf("Get returned %s, want %s", got, value)
		}
	})

	t.Run("GetMissingKey", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")

		got, err := backend.Get("test", "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Errorf("Get of missing key returned %q, want nil", got)
		}
	})

	t.Run("EmptyKey", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")

		if err := backend.Put("test", "", []byte("v")); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Put with empty key returned %v, want ErrEmptyKey", err)
		}
	})

	t.Run("MissingCollection", func(t *testing.T) {
		backend := open(t)

		if err := backend.Put("nope", "k", []byte("v")); !errors.Is(err, ErrCollectionNotFound) {
			t.Errorf("Put returned %v, want ErrCollectionNotFound", err)
		}
		if _, err := backend.Get("nope", "k"); !errors.Is(err, ErrCollectionNotFound) {
			t.Errorf("Get returned %v, want ErrCollectionNotFound", err)
		}
		if _, err := backend.Count("nope"); !errors.Is(err, ErrCollectionNotFound) {
			t.Errorf("Count returned %v, want ErrCollectionNotFound", err)
		}
	})

	t.Run("ForEachAndCount", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")

		want := map[string]string{"a": "1", "b": "2", "c": "3"}
		for k, v := range want {
			if err := backend.Put("test", k, []byte(v)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		got := make(map[string]string)
		err := backend.ForEach("test", func(key string, value []byte) error {
			got[key] = string(value)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("ForEach visited %d keys, want %d", len(got), len(want))
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("ForEach saw %s=%s, want %s", k, got[k], v)
			}
		}

		n, err := backend.Count("test")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Count returned %d, want 3", n)
		}
	})

	t.Run("ForEachStopsOnError", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")
		backend.Put("test", "a", []byte("1"))
		backend.Put("test", "b", []byte("2"))

		stop := errors.New("stop")
		visited := 0
		err := backend.ForEach("test", func(string, []byte) error {
			visited++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("ForEach returned %v, want stop", err)
		}
		if visited != 1 {
			t.Errorf("ForEach visited %d keys after error, want 1", visited)
		}
	})

	t.Run("UpdateCommits", func(t *testing.T) {
		backend := open(t)

		err := backend.Update(func(tx Tx) error {
			if err := tx.CreateCollection("batch"); err != nil {
				return err
			}
			coll := tx.Collection("batch")
			if coll == nil {
				return errors.New("collection missing inside transaction")
			}
			for i := range 5 {
				if err := coll.Put(fmt.Sprintf("k%d", i), []byte("v")); err != nil {
					return err
				}
			}
			if got := coll.Get("k0"); !bytes.Equal(got, []byte("v")) {
				return fmt.Errorf("read own write returned %q", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		n, err := backend.Count("batch")
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 5 {
			t.Errorf("Count returned %d, want 5", n)
		}
	})

	t.Run("UpdateRollsBack", func(t *testing.T) {
		backend := open(t)
		backend.CreateCollection("test")

		boom := errors.New("boom")
		err := backend.Update(func(tx Tx) error {
			if err := tx.Collection("test").Put("k", []byte("v")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update returned %v, want boom", err)
		}

		got, err := backend.Get("test", "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Errorf("write from failed transaction is visible: %q", got)
		}
	})

	t.Run("TxMissingCollection", func(t *testing.T) {
		backend := open(t)

		err := backend.Update(func(tx Tx) error {
			if tx.Collection("nope") != nil {
				t.Error("Collection should be nil for a missing collection")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	})
}
