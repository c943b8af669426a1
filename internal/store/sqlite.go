package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteStore is the embedded file-based backend. It keeps SQL
// templates untouched: the driver natively understands `?` placeholders
// and exposes the last inserted id.
type sqliteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func openSQLite(path string, logger *slog.Logger) (Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// One shared connection per process. SQLite serializes writers
	// anyway, and a single connection keeps the in-memory variant
	// (used by tests) on one coherent database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, logger: logger}, nil
}

func (s *sqliteStore) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	start := time.Now()

	if isReadStatement(query) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			observe(s.logger, KindSQLite, query, start, err)
			return nil, &QueryError{Query: query, Err: err}
		}
		defer rows.Close()

		scanned, err := scanRows(rows)
		observe(s.logger, KindSQLite, query, start, err)
		if err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		return &Result{Rows: scanned, RowCount: int64(len(scanned))}, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	observe(s.logger, KindSQLite, query, start, err)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	affected, _ := res.RowsAffected()
	result := &Result{RowCount: affected}
	if isInsertStatement(query) {
		if id, err := res.LastInsertId(); err == nil {
			result.InsertID = id
		}
	}
	return result, nil
}

func (s *sqliteStore) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	res, err := s.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}

func (s *sqliteStore) Kind() Kind {
	return KindSQLite
}

func (s *sqliteStore) Dialect() Dialect {
	return sqliteDialect
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
