package localstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/five82/handbook/internal/handbook"
	"github.com/five82/handbook/internal/session"
	"github.com/five82/handbook/internal/state"
)

var (
	_ state.Remote = (*Store)(nil)
	_ state.Auth   = (*Store)(nil)
)

const defaultSessionTTL = time.Hour

// Options configure a local Store.
type Options struct {
	Path              string // ":memory:" keeps everything in process
	AdminEmail        string
	AdminPasswordHash string // bcrypt hash; empty skips seeding
	SigningKey        []byte // nil generates a random per-process key
	SessionTTL        time.Duration
	Logger            *slog.Logger
}

// Store is a SQLite-backed handbook with password sign-in.
type Store struct {
	db         *sql.DB
	log        *slog.Logger
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time

	bus session.Bus
}

// Open opens (creating if needed) the database at opts.Path and applies the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	key := opts.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:         db,
		log:        logger.With("component", "localstore"),
		signingKey: key,
		ttl:        ttl,
		now:        time.Now,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if opts.AdminEmail != "" && opts.AdminPasswordHash != "" {
		if err := s.PutUser(ctx, opts.AdminEmail, opts.AdminPasswordHash); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id            TEXT PRIMARY KEY,
		kategorie     TEXT NOT NULL,
		fehlermeldung TEXT NOT NULL,
		beschreibung  TEXT NOT NULL,
		loesung       TEXT NOT NULL,
		created_at    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kategorien (
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		refresh_token TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id),
		expires_at    DATETIME NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SelectEntries returns every entry in insertion order.
func (s *Store) SelectEntries(ctx context.Context) ([]handbook.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kategorie, fehlermeldung, beschreibung, loesung FROM entries ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []handbook.Entry
	for rows.Next() {
		var e handbook.Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Message, &e.Description, &e.Resolution); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SelectCategories returns every category name in insertion order.
func (s *Store) SelectCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM kategorien ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// InsertEntry stores a new entry under a fresh UUID.
func (s *Store) InsertEntry(ctx context.Context, fields handbook.EntryFields) (handbook.Entry, error) {
	e := handbook.Entry{ID: uuid.NewString(), EntryFields: fields}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (id, kategorie, fehlermeldung, beschreibung, loesung, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, fields.Category, fields.Message, fields.Description, fields.Resolution, s.now().UTC(),
	)
	if err != nil {
		return handbook.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// UpdateEntry rewrites the entry with id. It returns nil when no row matched.
func (s *Store) UpdateEntry(ctx context.Context, id string, fields handbook.EntryFields) (*handbook.Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("entry id required")
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE entries SET kategorie = ?, fehlermeldung = ?, beschreibung = ?, loesung = ? WHERE id = ?",
		fields.Category, fields.Message, fields.Description, fields.Resolution, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return &handbook.Entry{ID: id, EntryFields: fields}, nil
}

// DeleteEntry removes the entry with id. Deleting a missing id is not an error.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("entry id required")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// InsertCategory appends a category. Names are not deduplicated here.
func (s *Store) InsertCategory(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO kategorien (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// PutUser creates the user or replaces its password hash.
func (s *Store) PutUser(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET password_hash = excluded.password_hash`,
		uuid.NewString(), email, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}
