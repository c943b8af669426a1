package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Dialect carries the DDL fragments that differ between backends. The
// logical schema (columns, nullability, uniqueness, cascades) is
// identical; only column type syntax varies.
type Dialect struct {
	SerialPK  string // auto-increment integer primary key
	Text      string
	Bool      string
	Timestamp string // column type with creation default
}

var sqliteDialect = Dialect{
	SerialPK:  "INTEGER PRIMARY KEY AUTOINCREMENT",
	Text:      "TEXT",
	Bool:      "INTEGER",
	Timestamp: "DATETIME DEFAULT CURRENT_TIMESTAMP",
}

var postgresDialect = Dialect{
	SerialPK:  "SERIAL PRIMARY KEY",
	Text:      "TEXT",
	Bool:      "BOOLEAN",
	Timestamp: "TIMESTAMP DEFAULT CURRENT_TIMESTAMP",
}

// tableStatements renders the idempotent CREATE TABLE set for the
// given dialect, in dependency order.
func tableStatements(d Dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username %s UNIQUE NOT NULL,
			nickname %s,
			email %s UNIQUE NOT NULL,
			password_hash %s NOT NULL,
			birth_date %s,
			gender %s,
			profile_image_url %s,
			is_admin %s DEFAULT %s,
			created_at %s
		)`, d.SerialPK, d.Text, d.Text, d.Text, d.Text, d.Text, d.Text, d.Text, d.Bool, d.falseLiteral(), d.Timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS dreams (
			id %s,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date %s NOT NULL,
			title %s NOT NULL,
			content %s NOT NULL,
			emotions %s,
			is_public %s DEFAULT %s,
			created_at %s,
			updated_at %s
		)`, d.SerialPK, d.Text, d.Text, d.Text, d.Text, d.Bool, d.falseLiteral(), d.Timestamp, d.Timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS analyses (
			id %s,
			dream_id INTEGER NOT NULL REFERENCES dreams(id) ON DELETE CASCADE,
			analysis_text %s NOT NULL,
			archetypes %s,
			symbols %s,
			psychological_state %s,
			created_at %s
		)`, d.SerialPK, d.Text, d.Text, d.Text, d.Text, d.Timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
			id %s,
			dream_id INTEGER NOT NULL REFERENCES dreams(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			parent_id INTEGER REFERENCES comments(id) ON DELETE CASCADE,
			content %s NOT NULL,
			created_at %s
		)`, d.SerialPK, d.Text, d.Timestamp),

		// target_type/target_id form a weak polymorphic reference; only
		// the user FK is enforced by the store.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reactions (
			id %s,
			target_type %s NOT NULL,
			target_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			emoji %s NOT NULL,
			created_at %s,
			UNIQUE (target_type, target_id, user_id, emoji)
		)`, d.SerialPK, d.Text, d.Text, d.Timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posts (
			id %s,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title %s NOT NULL,
			content %s NOT NULL,
			created_at %s
		)`, d.SerialPK, d.Text, d.Text, d.Timestamp),
	}
}

func (d Dialect) falseLiteral() string {
	if d.Bool == "BOOLEAN" {
		return "FALSE"
	}
	return "0"
}

// additiveColumn is a column added after a table first shipped. The
// ALTER is attempted on every startup and expected to fail harmlessly
// once applied; there is no migration-version bookkeeping.
type additiveColumn struct {
	table  string
	column string
	ddl    func(d Dialect) string
}

var additiveColumns = []additiveColumn{
	{"users", "nickname", func(d Dialect) string { return d.Text }},
	{"users", "profile_image_url", func(d Dialect) string { return d.Text }},
	{"users", "is_admin", func(d Dialect) string { return d.Bool + " DEFAULT " + d.falseLiteral() }},
	{"dreams", "is_public", func(d Dialect) string { return d.Bool + " DEFAULT " + d.falseLiteral() }},
	// No creation default here: SQLite rejects ADD COLUMN with a
	// non-constant default.
	{"dreams", "updated_at", func(d Dialect) string { return d.timestampType() }},
}

func (d Dialect) timestampType() string {
	return strings.Fields(d.Timestamp)[0]
}

// EnsureSchema creates the required tables and applies additive column
// migrations. Running it any number of times against a populated store
// is a no-op with respect to existing data.
func EnsureSchema(ctx context.Context, s Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	d := s.Dialect()
	for _, stmt := range tableStatements(d) {
		if _, err := s.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}

	for _, ac := range additiveColumns {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ac.table, ac.column, ac.ddl(d))
		if _, err := s.Execute(ctx, stmt); err != nil {
			if isDuplicateColumnError(err) {
				continue
			}
			return fmt.Errorf("schema migrate %s.%s: %w", ac.table, ac.column, err)
		}
		logger.Info("Schema column added",
			slog.String("table", ac.table),
			slog.String("column", ac.column),
		)
	}

	logger.Info("Database schema ready")
	return nil
}

// isDuplicateColumnError recognizes the exact failure class of
// re-applying an ADD COLUMN: SQLite reports "duplicate column name",
// PostgreSQL raises SQLSTATE 42701. Anything else is a genuine failure
// and must surface.
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column name") ||
		strings.Contains(msg, "42701") ||
		strings.Contains(msg, "already exists")
}
