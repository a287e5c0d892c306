// Package store keeps a SQLite index of pipeline runs: which catalogs each
// run produced and where every realization's images were written.
//
// The schema is embedded and migrated with golang-migrate on Open, so an
// index created by an older binary is upgraded in place.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	sgerrors "github.com/matzehuels/stampgrid/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one invocation of the pipeline.
type Run struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	ConfigHash string
	NCat       int
	NRea       int
	Seed       uint64
	OutDir     string
}

// Catalog is a generated catalog file belonging to a run.
type Catalog struct {
	RunID string
	Index int
	Path  string
	Rows  int
	Hash  string
}

// Realization is one composed image set for a catalog.
type Realization struct {
	RunID     string
	Catalog   int
	Index     int
	Science   string
	Truth     string
	PSF       string
	Policy    string
	Neighbors int
	Duration  time.Duration
	Cached    bool
}

// Store wraps the index database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (or creates) the index at path and applies pending
// migrations. Use ":memory:" for a throwaway index.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers from the worker pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.Log = &migrateLogger{logger: s.logger}

	// m is not closed: closing it closes s.db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func (s *Store) Version() (uint, error) {
	var v uint
	err := s.db.QueryRow(`SELECT version FROM schema_migrations LIMIT 1`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run. CreatedAt defaults to now.
func (s *Store) RecordRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		return sgerrors.New(sgerrors.ErrCodeInvalidInput, "run id is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, config_hash, ncat, nrea, seed, outdir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.ConfigHash,
		r.NCat, r.NRea, int64(r.Seed), r.OutDir)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	s.logger.Debug("run recorded", "id", r.ID, "name", r.Name)
	return nil
}

// RecordCatalog inserts or replaces a catalog entry.
func (s *Store) RecordCatalog(ctx context.Context, c Catalog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO catalogs (run_id, idx, path, rows, hash)
		VALUES (?, ?, ?, ?, ?)`,
		c.RunID, c.Index, c.Path, c.Rows, c.Hash)
	if err != nil {
		return fmt.Errorf("record catalog %d: %w", c.Index, err)
	}
	return nil
}

// RecordRealization inserts or replaces a realization entry.
func (s *Store) RecordRealization(ctx context.Context, r Realization) error {
	cached := 0
	if r.Cached {
		cached = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO realizations
			(run_id, catalog_idx, idx, science, truth, psf, policy, neighbors, duration_ms, cached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Catalog, r.Index, r.Science, r.Truth, r.PSF, r.Policy,
		r.Neighbors, r.Duration.Milliseconds(), cached)
	if err != nil {
		return fmt.Errorf("record realization %d/%d: %w", r.Catalog, r.Index, err)
	}
	return nil
}

const runColumns = `id, name, created_at, config_hash, ncat, nrea, seed, outdir`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		r       Run
		created string
		seed    int64
	)
	if err := row.Scan(&r.ID, &r.Name, &created, &r.ConfigHash, &r.NCat, &r.NRea, &seed, &r.OutDir); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	r.Seed = uint64(seed)
	return &r, nil
}

// Run returns the run with the given id.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sgerrors.New(sgerrors.ErrCodeNotFound, "run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	return r, nil
}

// Runs lists runs newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Catalogs lists the catalogs of a run in index order.
func (s *Store) Catalogs(ctx context.Context, runID string) ([]Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, path, rows, hash FROM catalogs
		WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	var out []Catalog
	for rows.Next() {
		var c Catalog
		if err := rows.Scan(&c.RunID, &c.Index, &c.Path, &c.Rows, &c.Hash); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Realizations lists the realizations of a run ordered by catalog then index.
func (s *Store) Realizations(ctx context.Context, runID string) ([]Realization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, catalog_idx, idx, science, truth, psf, policy, neighbors, duration_ms, cached
		FROM realizations WHERE run_id = ? ORDER BY catalog_idx, idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list realizations: %w", err)
	}
	defer rows.Close()

	var out []Realization
	for rows.Next() {
		var (
			r      Realization
			ms     int64
			cached int
		)
		if err := rows.Scan(&r.RunID, &r.Catalog, &r.Index, &r.Science, &r.Truth, &r.PSF,
			&r.Policy, &r.Neighbors, &ms, &cached); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		r.Cached = cached != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// migrateLogger routes golang-migrate output to the store logger.
type migrateLogger struct {
	logger *log.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
