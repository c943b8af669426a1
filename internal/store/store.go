// Package store normalizes the two supported relational backends (an
// embedded SQLite file and a PostgreSQL server) behind one query
// interface. Callers write SQL with `?` placeholders; each backend
// adapts placeholder syntax and insert-id reporting to its driver.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"oneiro/internal/config"
	"oneiro/internal/observability"
)

// Kind identifies the backing engine.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Result is the uniform outcome of Execute. RowCount reflects rows
// returned for reads and rows affected for writes. InsertID is set only
// for INSERT statements.
type Result struct {
	Rows     []Row
	RowCount int64
	InsertID int64
}

// Store is the backend-neutral query interface, selected once at
// process start from configuration.
type Store interface {
	// Execute runs a statement written with `?` placeholders and
	// returns a uniform Result.
	Execute(ctx context.Context, query string, args ...any) (*Result, error)

	// FetchOne runs the query via Execute and returns the first row,
	// or nil when the query matched nothing.
	FetchOne(ctx context.Context, query string, args ...any) (Row, error)

	// Kind reports which engine backs this store.
	Kind() Kind

	// Dialect exposes the DDL fragments that differ between engines.
	Dialect() Dialect

	// Close releases the connection or pool. Safe to call during
	// orderly shutdown and from test teardown.
	Close() error
}

// QueryError wraps a driver failure with the statement that caused it.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Open selects and opens the backend: a DATABASE_URL in the config
// selects PostgreSQL, its absence selects the embedded SQLite file.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DatabaseURL != "" {
		logger.Info("Using PostgreSQL database")
		return openPostgres(cfg.DatabaseURL, logger)
	}
	logger.Info("Using SQLite database", slog.String("path", cfg.SQLitePath))
	return openSQLite(cfg.SQLitePath, logger)
}

// observe records query latency and logs failures. Shared by both
// backends so error reporting stays uniform.
func observe(logger *slog.Logger, kind Kind, query string, start time.Time, err error) {
	observability.DatabaseQueryLatency.
		WithLabelValues(string(kind), statementVerb(query)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("Database query error",
			slog.String("backend", string(kind)),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
}
