// Package store keeps the history of summary runs in DuckDB so failed jobs
// can be retried by a later invocation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Store wraps a DuckDB connection holding run history.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

var (
	shared   = map[string]*Store{}
	sharedMu sync.Mutex
)

// Open returns the store at path, creating the file and schema if needed.
// Stores are cached per path; DuckDB allows a single writer per file.
func Open(path string) (*Store, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if s, ok := shared[path]; ok {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := initDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	shared[path] = s
	return s, nil
}

func initDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DuckDB: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// CreateSchema creates the tables.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the connection and forgets the cached store.
func (s *Store) Close() error {
	sharedMu.Lock()
	if shared[s.path] == s {
		delete(shared, s.path)
	}
	sharedMu.Unlock()
	return s.db.Close()
}
