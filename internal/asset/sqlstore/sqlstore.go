// Package sqlstore persists mesh descriptors in SQLite so advisor edits
// survive across runs.
//
// Usage:
//
//	st, err := sqlstore.Open("meshes.db")
//	mesh, err := st.Load(ctx, "SM_Rock")
//
// Meshes returned by Load write their descriptor back when rebuilt.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/meshadvisor/internal/asset"
	"github.com/Faultbox/meshadvisor/internal/logger"
)

// ErrNotFound is returned when no mesh with the requested name is stored.
var ErrNotFound = errors.New("mesh not found")

const schema = `
CREATE TABLE IF NOT EXISTS meshes (
	name       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	descriptor TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

type config struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
	now         func() time.Time
	log         *zap.Logger
}

func defaults() config {
	return config{
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		now:         time.Now,
		log:         logger.Named("sqlstore"),
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithClock overrides the timestamp source for updated_at.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithLogger sets the logger for write-back failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// Store is a SQLite-backed descriptor table.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *zap.Logger
}

// Open opens (or creates) the store at path. ":memory:" opens a private
// in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlstore: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous=%s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	return &Store{db: db, now: cfg.now, log: cfg.log}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a descriptor.
func (s *Store) Put(ctx context.Context, d asset.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	body, err := asset.MarshalDescriptor(d)
	if err != nil {
		return fmt.Errorf("sqlstore: encode %s: %w", d.Name, err)
	}
	kind, _ := asset.ParseKind(string(d.Kind))
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meshes (name, kind, descriptor, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind=excluded.kind, descriptor=excluded.descriptor, updated_at=excluded.updated_at`,
		d.Name, string(kind), string(body), s.now().Unix())
	if err != nil {
		return fmt.Errorf("sqlstore: put %s: %w", d.Name, err)
	}
	return nil
}

// Get returns the stored descriptor for name.
func (s *Store) Get(ctx context.Context, name string) (asset.Descriptor, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT descriptor FROM meshes WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Descriptor{}, fmt.Errorf("sqlstore: %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return asset.Descriptor{}, fmt.Errorf("sqlstore: get %s: %w", name, err)
	}
	return asset.UnmarshalDescriptor([]byte(body))
}

// Load returns a write-through mesh for name.
func (s *Store) Load(ctx context.Context, name string, opts ...asset.MemoryOption) (*Mesh, error) {
	d, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := asset.NewMemoryMesh(d, opts...)
	if err != nil {
		return nil, err
	}
	return &Mesh{MemoryMesh: m, store: s}, nil
}

// List returns stored mesh names in ascending order, optionally filtered by kind.
func (s *Store) List(ctx context.Context, kind asset.Kind) ([]string, error) {
	query := `SELECT name FROM meshes ORDER BY name`
	args := []any{}
	if kind != "" {
		query = `SELECT name FROM meshes WHERE kind = ? ORDER BY name`
		args = append(args, string(kind))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlstore: list: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a stored mesh. Deleting a missing name is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meshes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", name, err)
	}
	return nil
}

// Mesh is an asset.Mesh that writes its descriptor back to the store when
// it is rebuilt or a LOD is restored. LOD count and parameter edits stay in
// memory until then.
type Mesh struct {
	*asset.MemoryMesh
	store *Store
}

func (m *Mesh) persist() error {
	return m.store.Put(context.Background(), m.Descriptor())
}

// Rebuild regenerates LODs and persists the result.
func (m *Mesh) Rebuild(opts asset.RebuildOptions) error {
	if err := m.MemoryMesh.Rebuild(opts); err != nil {
		return err
	}
	return m.persist()
}

// RestoreImportedLOD restores LOD i and persists the change. A failed write
// is logged; the result reflects the in-memory restore.
func (m *Mesh) RestoreImportedLOD(i int) bool {
	if !m.MemoryMesh.RestoreImportedLOD(i) {
		return false
	}
	if err := m.persist(); err != nil {
		m.store.log.Warn("restored LOD not persisted",
			zap.String("mesh", m.Name()),
			zap.Int("lod", i),
			zap.Error(err))
	}
	return true
}
