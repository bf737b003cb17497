package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteDB stores each collection as a table of JSON documents with the
// owner and date lifted into indexed columns.
type SQLiteDB struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &SQLiteDB{db: db, path: path, logger: logger}, nil
}

// Provider returns "sqlite".
func (s *SQLiteDB) Provider() string { return "sqlite" }

// Ping checks the connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteDB) Close(context.Context) error {
	return s.db.Close()
}

type sqliteCollection[T Document] struct {
	db    *SQLiteDB
	table string
}

func newSQLiteCollection[T Document](db *SQLiteDB, name string) (*sqliteCollection[T], error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date    INTEGER NOT NULL,
	doc     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_user_date ON %[1]s (user_id, date);`, name)

	if _, err := db.db.ExecContext(context.Background(), ddl); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	return &sqliteCollection[T]{db: db, table: name}, nil
}

func (c *sqliteCollection[T]) Insert(ctx context.Context, doc T) error {
	if doc.DocID() == "" || doc.Owner() == "" {
		return fmt.Errorf("%w: document id and owner are required", ErrInvalidQuery)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = c.db.db.ExecContext(ctx,
		"INSERT INTO "+c.table+" (id, user_id, date, doc) VALUES (?, ?, ?, ?)",
		doc.DocID(), doc.Owner(), doc.DocDate().UnixMilli(), string(raw))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return fmt.Errorf("%w: %s", ErrDuplicateID, doc.DocID())
		}
		return fmt.Errorf("insert into %s: %w", c.table, err)
	}
	return nil
}

func (c *sqliteCollection[T]) Get(ctx context.Context, q Query) (T, error) {
	var zero T
	if err := q.validate(true); err != nil {
		return zero, err
	}
	docs, err := c.Find(ctx, Query{ID: q.ID, UserID: q.UserID, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

func (c *sqliteCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	if err := q.validate(false); err != nil {
		return nil, err
	}
	where, args, err := sqliteWhere(q)
	if err != nil {
		return nil, err
	}

	dir := "DESC"
	if q.Order == Oldest {
		dir = "ASC"
	}
	stmt := fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY date %s, rowid %s", c.table, where, dir, dir)
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := c.db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (c *sqliteCollection[T]) Update(ctx context.Context, q Query, fields Fields) (T, error) {
	var zero T
	if err := q.validate(true); err != nil {
		return zero, err
	}

	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var raw string
	err = tx.QueryRowContext(ctx,
		"SELECT doc FROM "+c.table+" WHERE id = ? AND user_id = ?", q.ID, q.UserID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("load %s/%s: %w", c.table, q.ID, err)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return zero, fmt.Errorf("decode document: %w", err)
	}
	for k, v := range fields.mutable(now()) {
		jv, err := jsonValue(v)
		if err != nil {
			return zero, fmt.Errorf("encode field %s: %w", k, err)
		}
		m[k] = jv
	}
	updated, err := json.Marshal(m)
	if err != nil {
		return zero, fmt.Errorf("encode document: %w", err)
	}
	var doc T
	if err := json.Unmarshal(updated, &doc); err != nil {
		return zero, fmt.Errorf("decode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE "+c.table+" SET doc = ?, date = ? WHERE id = ?",
		string(updated), doc.DocDate().UnixMilli(), q.ID); err != nil {
		return zero, fmt.Errorf("update %s/%s: %w", c.table, q.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

func (c *sqliteCollection[T]) Delete(ctx context.Context, q Query) error {
	if err := q.validate(true); err != nil {
		return err
	}
	res, err := c.db.db.ExecContext(ctx,
		"DELETE FROM "+c.table+" WHERE id = ? AND user_id = ?", q.ID, q.UserID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.table, q.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.table, q.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *sqliteCollection[T]) Count(ctx context.Context, q Query) (int64, error) {
	if err := q.validate(false); err != nil {
		return 0, err
	}
	where, args, err := sqliteWhere(q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table+" WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

func sqliteWhere(q Query) (string, []any, error) {
	clauses := []string{"user_id = ?"}
	args := []any{q.UserID}

	if q.ID != "" {
		clauses = append(clauses, "id = ?")
		args = append(args, q.ID)
	}
	if !q.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, q.To.UnixMilli())
	}

	keys := make([]string, 0, len(q.Equals))
	for k := range q.Equals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !sqliteFieldName.MatchString(k) {
			return "", nil, fmt.Errorf("%w: field name %q", ErrInvalidQuery, k)
		}
		v, err := sqliteValue(q.Equals[k])
		if err != nil {
			return "", nil, fmt.Errorf("%w: field %s: %v", ErrInvalidQuery, k, err)
		}
		clauses = append(clauses, "json_extract(doc, '$."+k+"') = ?")
		args = append(args, v)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// sqliteValue converts a filter value to what json_extract yields for it:
// booleans become 0 or 1.
func sqliteValue(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	default:
		return nil, fmt.Errorf("unsupported filter type %T", v)
	}
}
