// Package catalog implements the transactional on-disk store of installed
// packages, their dependency/provides/file side tables, and the broken set.
package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Catalog provides transactional SQLite operations over the schema of
// the persisted layout: packages, dependencies, provides, files, and
// broken_packages.
type Catalog struct {
	db *sql.DB
}

// executor is satisfied by both *sql.DB and *sql.Tx, letting every query
// method run either standalone or inside the Transactor's transaction.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Open creates a Catalog backed by the SQLite database at dbPath, creating
// the file and schema if absent. Use ":memory:" for ephemeral catalogs.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) createSchema() error {
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Begin starts a transaction. The Transactor wraps every install/remove
// in one of these per §4.5; most Catalog methods accept the returned *Tx,
// or c.DB() for a standalone query, as their first argument.
func (c *Catalog) Begin() (*sql.Tx, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}
