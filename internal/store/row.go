package store

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Row is a single result row keyed by column name. Accessors tolerate
// the scan-type differences between the two drivers (int64 vs []byte,
// bool vs integer flags, time.Time vs DATETIME strings).
type Row map[string]any

// Has reports whether the column is present and non-NULL.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// Int64 returns the column as int64, or 0 when absent or NULL.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// String returns the column as a string, or "" when absent or NULL.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// NullString returns the column as *string, nil when NULL.
func (r Row) NullString(col string) *string {
	if !r.Has(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

// Bool returns the column as bool. SQLite stores booleans as integers.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case []byte:
		s := string(v)
		return s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "t")
	case string:
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "t")
	default:
		return false
	}
}

// Time returns the column as time.Time, zero when absent or unparseable.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		return parseTimeString(v)
	case []byte:
		return parseTimeString(string(v))
	default:
		return time.Time{}
	}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// scanRows materializes all rows of a result set into []Row.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				// Copy: drivers may reuse the buffer between rows.
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// statementVerb extracts the leading SQL verb for metrics labels.
func statementVerb(query string) string {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

// isReadStatement reports whether the statement produces a result set.
func isReadStatement(query string) bool {
	verb := statementVerb(query)
	return verb == "select" || verb == "with" || verb == "pragma"
}

// isInsertStatement reports whether the statement is an INSERT.
func isInsertStatement(query string) bool {
	return statementVerb(query) == "insert"
}
