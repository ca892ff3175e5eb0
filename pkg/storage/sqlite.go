package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore is a SQLite database holding fixture tables.
type SQLStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLStore opens a SQLite database. Use ":memory:" for an in-memory
// database, or a file path for persistent storage.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table is an ORM-style table storing rows of T as JSON payloads.
type Table[T any] struct {
	store *SQLStore
	name  string
}

// NewTable returns the table called name, creating it if needed.
func NewTable[T any](ctx context.Context, s *SQLStore, name string) (*Table[T], error) {
	if !tableName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s(created_at);
	`, name)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("initialize table %s: %w", name, err)
	}
	return &Table[T]{store: s, name: name}, nil
}

// Create inserts row and returns it unchanged.
func (t *Table[T]) Create(ctx context.Context, row T) (T, error) {
	payload, err := encodeJSON(row)
	if err != nil {
		return row, err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	_, err = t.store.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (created_at, payload) VALUES (?, ?)", t.name),
		time.Now().Unix(), string(payload),
	)
	if err != nil {
		return row, fmt.Errorf("insert into %s: %w", t.name, err)
	}
	return row, nil
}

// CreateMany inserts rows in one transaction and returns the number inserted.
func (t *Table[T]) CreateMany(ctx context.Context, rows []T) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (created_at, payload) VALUES (?, ?)", t.name))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	n := 0
	for _, row := range rows {
		payload, err := encodeJSON(row)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, now, string(payload))
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", t.name, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		n += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// All returns every row in insertion order.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	rows, err := t.store.db.QueryContext(ctx,
		fmt.Sprintf("SELECT payload FROM %s ORDER BY id", t.name))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var row T
		if err := decodeJSON([]byte(payload), &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Count returns the number of rows.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var n int
	err := t.store.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}
