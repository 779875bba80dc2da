// Package catalog stores named observing block lists in a local SQLite
// database.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/codec"
)

// ErrNotFound is returned for a list or block that is not stored.
var ErrNotFound = errors.New("not found in catalog")

const schema = `
CREATE TABLE IF NOT EXISTS lists (
    name       TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    blocks     INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blocks (
    id        TEXT NOT NULL,
    list_name TEXT NOT NULL REFERENCES lists(name) ON DELETE CASCADE,
    position  INTEGER NOT NULL,
    kind      TEXT NOT NULL,
    target    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (list_name, position)
);

CREATE INDEX IF NOT EXISTS blocks_id ON blocks(id);
`

// Entry describes one stored list.
type Entry struct {
	Name      string
	Blocks    int
	UpdatedAt time.Time
}

// Location is where a block is stored.
type Location struct {
	List     string
	Position int
}

// Store is a SQLite-backed catalog in WAL mode.
type Store struct {
	db  *sql.DB
	dec *codec.Decoder
	now func() time.Time
}

// Open opens or creates the catalog at path. dec decodes stored lists; nil
// uses codec.NewDecoder.
func Open(ctx context.Context, path string, dec *codec.Decoder) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	if dec == nil {
		dec = codec.NewDecoder()
	}
	return &Store{db: db, dec: dec, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores l under l.Name, replacing any list of the same name.
func (s *Store) Save(ctx context.Context, l block.List) error {
	if l.Name == "" {
		return errors.New("catalog: list has no name")
	}
	var payload bytes.Buffer
	if err := codec.EncodeYAML(&payload, l); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const upsert = `
		INSERT INTO lists (name, payload, blocks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload    = excluded.payload,
			blocks     = excluded.blocks,
			updated_at = excluded.updated_at`
	updated := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, upsert, l.Name, payload.String(), l.Len(), updated); err != nil {
		return fmt.Errorf("catalog: save list %q: %w", l.Name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM blocks WHERE list_name = ?", l.Name); err != nil {
		return fmt.Errorf("catalog: clear blocks of %q: %w", l.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO blocks (id, list_name, position, kind, target) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("catalog: prepare block insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range l.All() {
		name := ""
		if t := b.Target(); t != nil {
			name = t.Name
		}
		if _, err := stmt.ExecContext(ctx, b.ID().String(), l.Name, i, string(b.Kind()), name); err != nil {
			return fmt.Errorf("catalog: index block %d of %q: %w", i, l.Name, err)
		}
	}
	return tx.Commit()
}

// Load returns the list stored under name. Blocks come back unvalidated.
func (s *Store) Load(ctx context.Context, name string) (block.List, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM lists WHERE name = ?", name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return block.List{}, fmt.Errorf("%w: list %q", ErrNotFound, name)
	}
	if err != nil {
		return block.List{}, fmt.Errorf("catalog: load %q: %w", name, err)
	}
	l, err := s.dec.DecodeYAML(bytes.NewReader([]byte(payload)))
	if err != nil {
		return block.List{}, fmt.Errorf("catalog: decode %q: %w", name, err)
	}
	l.Name = name
	return l, nil
}

// List returns every stored list, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, blocks, updated_at FROM lists ORDER BY updated_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.Name, &e.Blocks, &updated); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("catalog: list %q timestamp: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the named list.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lists WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("catalog: delete %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: list %q", ErrNotFound, name)
	}
	return nil
}

// FindBlock returns every place a block ID is stored. A block may appear
// in several lists, and more than once in one list.
func (s *Store) FindBlock(ctx context.Context, id uuid.UUID) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT list_name, position FROM blocks WHERE id = ? ORDER BY list_name, position", id.String())
	if err != nil {
		return nil, fmt.Errorf("catalog: find block %s: %w", id, err)
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.List, &loc.Position); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: block %s", ErrNotFound, id)
	}
	return locs, nil
}
