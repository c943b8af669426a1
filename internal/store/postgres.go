package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// postgresStore is the client/server backend. It rewrites `?`
// placeholders to the `$1,$2,...` syntax the driver expects and appends
// a RETURNING clause to INSERTs so the generated id can be surfaced
// uniformly.
type postgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func openPostgres(dsn string, logger *slog.Logger) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &postgresStore{db: db, logger: logger}, nil
}

// rebind rewrites `?` placeholders to `$1..$n`, preserving parameter
// order. Placeholders inside single-quoted string literals are left
// alone; note that caller data always travels as parameters, never
// interpolated into the template.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			// A doubled '' inside a literal toggles twice, which is
			// harmless for placeholder detection.
			inLiteral = !inLiteral
			b.WriteByte(ch)
		case ch == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// ensureReturning appends `RETURNING id` to INSERT statements that do
// not already declare a returning clause.
func ensureReturning(query string) string {
	if !isInsertStatement(query) {
		return query
	}
	if strings.Contains(strings.ToUpper(query), "RETURNING") {
		return query
	}
	return strings.TrimRight(query, " \t\n;") + " RETURNING id"
}

func (s *postgresStore) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	start := time.Now()
	bound := rebind(ensureReturning(query))

	if isReadStatement(query) || isInsertStatement(query) {
		// INSERTs run through Query so the RETURNING row is readable.
		rows, err := s.db.QueryContext(ctx, bound, args...)
		if err != nil {
			observe(s.logger, KindPostgres, query, start, err)
			return nil, &QueryError{Query: query, Err: err}
		}
		defer rows.Close()

		scanned, err := scanRows(rows)
		observe(s.logger, KindPostgres, query, start, err)
		if err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}

		result := &Result{Rows: scanned, RowCount: int64(len(scanned))}
		if isInsertStatement(query) && len(scanned) > 0 {
			result.InsertID = scanned[0].Int64("id")
		}
		return result, nil
	}

	res, err := s.db.ExecContext(ctx, bound, args...)
	observe(s.logger, KindPostgres, query, start, err)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	affected, _ := res.RowsAffected()
	return &Result{RowCount: affected}, nil
}

func (s *postgresStore) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	res, err := s.Execute(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}

func (s *postgresStore) Kind() Kind {
	return KindPostgres
}

func (s *postgresStore) Dialect() Dialect {
	return postgresDialect
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
