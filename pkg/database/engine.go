package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// sqlOpen allows tests to override database opening behavior.
var sqlOpen = sql.Open

// Config holds database engine configuration
type Config struct {
	URL             string
	Echo            bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	Logger          *logrus.Logger
}

// Engine is the shared connection factory handed to every module.
// It owns a pooled *sql.DB wrapped in a *bun.DB for the matching dialect.
type Engine struct {
	db      *bun.DB
	dialect Dialect
	logger  *logrus.Logger
	echo    bool
}

// Option configures an Engine built with NewEngine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEcho logs every SQL statement through the engine logger
func WithEcho(enabled bool) Option {
	return func(e *Engine) {
		e.echo = enabled
	}
}

// Open parses the database URL, opens and configures the pool, verifies
// connectivity, and returns an Engine. The pool is closed on any failure.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	target, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sqlOpen(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", target.Dialect, err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	// Every connection to ":memory:" is a separate database, so keep exactly one.
	if target.InMemory() {
		maxOpen, maxIdle = 1, 1
	}
	// Zero limits keep the database/sql defaults.
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", target.Dialect, err)
	}

	engine, err := NewEngine(sqlDB, target.Dialect, WithLogger(cfg.Logger), WithEcho(cfg.Echo))
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	engine.logger.WithFields(logrus.Fields{
		"dialect":        target.Dialect,
		"max_open_conns": maxOpen,
		"max_idle_conns": maxIdle,
		"echo":           cfg.Echo,
	}).Info("Database engine initialized")

	return engine, nil
}

// NewEngine wraps an already opened pool
func NewEngine(sqlDB *sql.DB, dialect Dialect, opts ...Option) (*Engine, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("nil database handle")
	}

	var db *bun.DB
	switch dialect {
	case DialectPostgres:
		db = bun.NewDB(sqlDB, pgdialect.New())
	case DialectSQLite:
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("%w: dialect %q", ErrUnsupportedURL, dialect)
	}

	e := &Engine{
		db:      db,
		dialect: dialect,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.echo {
		db.AddQueryHook(newEchoHook(e.logger))
	}

	return e, nil
}

// DB returns the bun handle used for queries
func (e *Engine) DB() *bun.DB {
	return e.db
}

// SQL returns the underlying database/sql pool
func (e *Engine) SQL() *sql.DB {
	return e.db.DB
}

// Dialect returns the engine dialect
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// HealthCheck pings the database and runs a trivial query
func (e *Engine) HealthCheck(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}

	var one int
	if err := e.db.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// Stats returns connection pool statistics
func (e *Engine) Stats() sql.DBStats {
	return e.db.DB.Stats()
}

// Close closes the pool
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
