package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath = "data/smartscraper.db"
)

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &Store{path: path, db: db, now: time.Now}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrations are applied in order; the schema version is their count.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS plans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	plan_name TEXT NOT NULL,
	download_speed REAL NOT NULL,
	upload_speed REAL NOT NULL DEFAULT 0,
	price REAL,
	updated_at TEXT NOT NULL,
	UNIQUE (url, plan_name, download_speed, upload_speed)
);
CREATE TABLE IF NOT EXISTS verifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	correlation_id TEXT,
	plan_id INTEGER,
	url TEXT NOT NULL,
	plan_name TEXT NOT NULL,
	verified INTEGER NOT NULL,
	confidence REAL NOT NULL,
	current_price REAL,
	promo_details TEXT,
	plan_details TEXT,
	error TEXT,
	error_type TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	verified_at TEXT NOT NULL,
	raw_json TEXT
);
CREATE INDEX IF NOT EXISTS verifications_plan_idx ON verifications(plan_id, verified_at);
`,
	`
CREATE INDEX IF NOT EXISTS plans_provider_idx ON plans(provider);
`,
	`
ALTER TABLE verifications ADD COLUMN model_calls INTEGER NOT NULL DEFAULT 0;
ALTER TABLE verifications ADD COLUMN total_tokens INTEGER NOT NULL DEFAULT 0;
ALTER TABLE verifications ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0;
`,
}

// SchemaVersion is the version Migrate brings a database to.
func SchemaVersion() int {
	return len(migrations)
}

// CreateTables brings the schema up to date. It is safe to call repeatedly.
func (s *Store) CreateTables(ctx context.Context) error {
	return s.Migrate(ctx)
}

// Migrate applies the migrations newer than the database's user_version.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	for v := current; v < len(migrations); v++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}
	return nil
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// DropTables removes all tables and resets the schema version.
func (s *Store) DropTables(ctx context.Context) error {
	stmts := []string{
		`DROP TABLE IF EXISTS verifications;`,
		`DROP TABLE IF EXISTS plans;`,
		`PRAGMA user_version = 0;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ClearTables deletes all rows but keeps the schema.
func (s *Store) ClearTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM verifications; DELETE FROM plans;`)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
