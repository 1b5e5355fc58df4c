package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/recstore/internal/backend"
	"github.com/roach88/recstore/internal/querysql"
)

// Driver names accepted by WithDriver.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"
)

// Errors returned by Open for invalid options.
var (
	ErrUnknownDriver      = errors.New("unknown sqlite driver")
	ErrInvalidJournalMode = errors.New("invalid journal mode")
)

var journalModes = map[string]bool{
	"DELETE": true, "TRUNCATE": true, "PERSIST": true,
	"MEMORY": true, "WAL": true, "OFF": true,
}

// Options configures Open.
type Options struct {
	Driver      string
	BusyTimeout time.Duration
	JournalMode string
}

// Option mutates Options.
type Option func(*Options)

// WithDriver selects the database/sql driver (DriverCGO or DriverPure).
func WithDriver(name string) Option {
	return func(o *Options) { o.Driver = name }
}

// WithBusyTimeout sets how long a statement waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *Options) { o.BusyTimeout = d }
}

// WithJournalMode sets the journal_mode pragma (WAL, DELETE, ...).
func WithJournalMode(mode string) Option {
	return func(o *Options) { o.JournalMode = mode }
}

func defaultOptions() Options {
	return Options{
		Driver:      DriverCGO,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	}
}

// Store is a SQLite database serving record collections.
// Every table with a rowid is a collection of the same name.
type Store struct {
	db       *sql.DB
	compiler *querysql.SQLCompiler
}

var _ backend.Backend = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - the requested journal mode (WAL by default)
//   - NORMAL synchronous mode
//   - a busy timeout for lock contention (5s by default)
//   - foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Driver != DriverCGO && o.Driver != DriverPure {
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, o.Driver)
	}
	if !journalModes[strings.ToUpper(o.JournalMode)] {
		return nil, fmt.Errorf("%w %q", ErrInvalidJournalMode, o.JournalMode)
	}

	db, err := sql.Open(o.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps per-connection pragmas (foreign_keys) in force.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	slog.Debug("database opened", "path", path, "driver", o.Driver)
	return &Store{db: db, compiler: querysql.NewSQLCompiler()}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exec runs one or more statements, typically DDL.
func (s *Store) Exec(ctx context.Context, stmts string) error {
	if _, err := s.db.ExecContext(ctx, stmts); err != nil {
		return fmt.Errorf("failed to execute statements: %w", err)
	}
	return nil
}

// Collection returns the collection backed by table name.
func (s *Store) Collection(name string) (backend.Collection, error) {
	if _, err := querysql.Quote(name); err != nil {
		return nil, err
	}

	var found int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&found)
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", name, err)
	}
	if found == 0 {
		return nil, fmt.Errorf("%w %q", backend.ErrUnknownCollection, name)
	}
	return &collection{store: s, name: name}, nil
}

// Tables lists the user tables of the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func applyPragmas(db *sql.DB, o Options) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", o.JournalMode),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
