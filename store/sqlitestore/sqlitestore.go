// Package sqlitestore is an alternate persistence backend for a fact
// graph's writable Store, keeping the same key/tagged-value shape but
// backed by SQLite instead of an in-process map, per spec.md §5's note
// that the writable store's persistence is pluggable.
package sqlitestore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	factgraph "github.com/trueprep/fact-graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	path TEXT PRIMARY KEY,
	tagged_json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps a SQLite-backed writable store: tagged-value rows keyed by
// path plus the migration level, with every call round-tripping to disk.
// It does not have factgraph.Store's method set; a Graph evaluates
// against an in-memory factgraph.Store, which LoadStore and SaveStore
// copy from and to the database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) a SQLite database at path and ensures
// its schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store %q: %w", path, err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing sqlite store schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Put upserts one fact's tagged-JSON encoding.
func (db *DB) Put(path string, taggedJSON []byte) error {
	_, err := db.conn.Exec(
		`INSERT INTO facts (path, tagged_json) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET tagged_json = excluded.tagged_json`,
		path, string(taggedJSON))
	return err
}

// Delete removes one fact.
func (db *DB) Delete(path string) error {
	_, err := db.conn.Exec(`DELETE FROM facts WHERE path = ?`, path)
	return err
}

// All returns every stored path and its tagged-JSON encoding.
func (db *DB) All() (map[string][]byte, error) {
	rows, err := db.conn.Query(`SELECT path, tagged_json FROM facts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]byte{}
	for rows.Next() {
		var path, taggedJSON string
		if err := rows.Scan(&path, &taggedJSON); err != nil {
			return nil, err
		}
		out[path] = []byte(taggedJSON)
	}
	return out, rows.Err()
}

// MigrationsApplied reads the stored migration level, defaulting to 0.
func (db *DB) MigrationsApplied() (int, error) {
	row := db.conn.QueryRow(`SELECT value FROM meta WHERE key = 'migrations_applied'`)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	var n int
	_, err := fmt.Sscanf(v, "%d", &n)
	return n, err
}

// SetMigrationsApplied records the migration level.
func (db *DB) SetMigrationsApplied(n int) error {
	_, err := db.conn.Exec(
		`INSERT INTO meta (key, value) VALUES ('migrations_applied', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", n))
	return err
}

// LoadStore reads the entire database into an in-memory factgraph.Store
// for use building a Graph.
func (db *DB) LoadStore() (*factgraph.Store, error) {
	facts, err := db.All()
	if err != nil {
		return nil, err
	}
	migrationsApplied, err := db.MigrationsApplied()
	if err != nil {
		return nil, err
	}
	// Route through the tagged-value codec rather than hand-rolling JSON
	// assembly, so any future codec change (e.g. compression) only needs
	// updating once.
	out := factgraph.NewStore()
	out.SetMigrationsApplied(migrationsApplied)
	for path, taggedJSON := range facts {
		v, err := factgraph.DecodeTaggedValue(taggedJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding stored fact %q: %w", path, err)
		}
		p, err := factgraph.ParsePath(path)
		if err != nil {
			return nil, fmt.Errorf("parsing stored path %q: %w", path, err)
		}
		out.Put(p, v)
	}
	return out, nil
}

// SaveStore writes every writable fact in s to the database, replacing
// any prior contents.
func (db *DB) SaveStore(s *factgraph.Store) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM facts`); err != nil {
		tx.Rollback()
		return err
	}
	for _, key := range s.EnumerateWritables() {
		p, err := factgraph.ParsePath(key)
		if err != nil {
			continue
		}
		v, ok := s.Get(p)
		if !ok {
			continue
		}
		encoded, err := factgraph.EncodeTaggedValue(v)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO facts (path, tagged_json) VALUES (?, ?)`, key, string(encoded)); err != nil {
			tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('migrations_applied', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", s.MigrationsApplied())); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
