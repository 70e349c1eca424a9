package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"warrantfeed/internal/domain"
)

const defaultQuery = `SELECT code, name FROM instruments ORDER BY id`

// SQLCatalog reads instruments from a SQLite or Postgres table.
type SQLCatalog struct {
	db     *sql.DB
	driver string
	query  string
	suffix string
	limit  int
}

// NewSQLite opens (and creates if needed) a SQLite catalog database.
func NewSQLite(path, query, suffix string, limit int) (*SQLCatalog, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return newSQL(db, "sqlite", query, suffix, limit)
}

func NewPostgres(dsn, query, suffix string, limit int) (*SQLCatalog, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	return newSQL(db, "pgx", query, suffix, limit)
}

func newSQL(db *sql.DB, driver, query, suffix string, limit int) (*SQLCatalog, error) {
	if strings.TrimSpace(query) == "" {
		query = defaultQuery
	}
	c := &SQLCatalog{db: db, driver: driver, query: query, suffix: suffix, limit: limit}
	if err := c.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLCatalog) Close() error { return c.db.Close() }

func (c *SQLCatalog) migrate(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS instruments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT ''
);`
	if c.driver == "pgx" {
		ddl = `
CREATE TABLE IF NOT EXISTS instruments (
  id BIGSERIAL PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT ''
);`
	}
	_, err := c.db.ExecContext(ctx, ddl)
	return err
}

func (c *SQLCatalog) Load(ctx context.Context) ([]domain.Instrument, error) {
	rows, err := c.db.QueryContext(ctx, c.query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			code string
			name sql.NullString
		)
		if err := rows.Scan(&code, &name); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrCatalogUnavailable, err)
		}
		out = append(out, Row{Code: code, Name: name.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return Instruments(out, c.suffix, c.limit)
}

// Import upserts rows by code, keeping row order for new codes.
func (c *SQLCatalog) Import(ctx context.Context, rows []Row) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, c.rebind(
		`INSERT INTO instruments(code, name) VALUES(?, ?) ON CONFLICT(code) DO UPDATE SET name = excluded.name`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, r := range rows {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, strings.TrimSpace(r.Name)); err != nil {
			return n, fmt.Errorf("import %s: %w", code, err)
		}
		n++
	}
	return n, tx.Commit()
}

// rebind converts ? placeholders to $n for Postgres.
func (c *SQLCatalog) rebind(q string) string {
	if c.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
