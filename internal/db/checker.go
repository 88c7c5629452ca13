// Package db verifies database side effects of API calls against MySQL.
// It builds plain SQL statements, executes them over database/sql, and
// wraps the results in assertion helpers with descriptive messages.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"pte/internal/config"
	"pte/pkg/logging"
)

// Checker executes verification queries against one database.
type Checker struct {
	db     *sql.DB
	schema string
	logger *logging.Logger
}

// Open connects to MySQL using the resolved IDC settings.
func Open(cfg config.MySQLSettings) (*Checker, error) {
	dsn := DSN(cfg)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database, err)
	}
	if cfg.MaxOpen > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdle)
	}
	conn.SetConnMaxLifetime(5 * time.Minute)
	return NewChecker(conn, cfg.Database), nil
}

// NewChecker wraps an existing connection. Tests use this with sqlmock.
func NewChecker(conn *sql.DB, schema string) *Checker {
	return &Checker{db: conn, schema: schema, logger: logging.Default()}
}

// DSN renders the MySQL connection string for the settings.
func DSN(cfg config.MySQLSettings) string {
	timeout := cfg.TimeoutSecs
	if timeout <= 0 {
		timeout = 10
	}
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, charset, timeout)
}

// Close releases the connection pool.
func (c *Checker) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Checker) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// QueryRows runs a SELECT and returns the rows as maps. Byte columns are
// converted to strings so results compare cleanly against expectations.
func (c *Checker) QueryRows(ctx context.Context, query string) ([]map[string]any, error) {
	c.logger.Debug("DB query: %s", query)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %s: %w", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query failed: %s: %w", query, err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %s: %w", query, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %s: %w", query, err)
	}
	return out, nil
}

// Exec runs an INSERT/UPDATE/DELETE and returns the affected row count.
func (c *Checker) Exec(ctx context.Context, query string) (int64, error) {
	c.logger.Debug("DB exec: %s", query)
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %s: %w", query, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec failed: %s: %w", query, err)
	}
	return affected, nil
}

// RecordCount counts rows matching the conditions.
func (c *Checker) RecordCount(ctx context.Context, table string, where map[string]any) (int64, error) {
	q := Query{Table: table, Fields: []string{"COUNT(*) AS cnt"}, Where: where}
	var count int64
	if err := c.db.QueryRowContext(ctx, q.SQL()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed for table %s: %w", table, err)
	}
	return count, nil
}

// TableCount counts all rows in a table.
func (c *Checker) TableCount(ctx context.Context, table string) (int64, error) {
	return c.RecordCount(ctx, table, nil)
}

// TableExists checks information_schema for the table.
func (c *Checker) TableExists(ctx context.Context, table string) (bool, error) {
	const q = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
	var count int64
	if err := c.db.QueryRowContext(ctx, q, c.schema, table).Scan(&count); err != nil {
		return false, fmt.Errorf("table existence check failed for %s: %w", table, err)
	}
	return count > 0, nil
}

// ColumnExists checks information_schema for a column of the table.
func (c *Checker) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	const q = "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = ? AND table_name = ? AND column_name = ?"
	var count int64
	if err := c.db.QueryRowContext(ctx, q, c.schema, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("column existence check failed for %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// TableStructure returns the DESCRIBE output for a table.
func (c *Checker) TableStructure(ctx context.Context, table string) ([]map[string]any, error) {
	return c.QueryRows(ctx, "DESCRIBE "+table)
}

// AssertTableExists fails unless the table exists.
func (c *Checker) AssertTableExists(ctx context.Context, table string) error {
	ok, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected table %q to exist in schema %q", table, c.schema)
	}
	return nil
}

// AssertTableNotExists fails if the table exists.
func (c *Checker) AssertTableNotExists(ctx context.Context, table string) error {
	ok, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("expected table %q to not exist in schema %q", table, c.schema)
	}
	return nil
}

// AssertColumnExists fails unless the table has the column.
func (c *Checker) AssertColumnExists(ctx context.Context, table, column string) error {
	ok, err := c.ColumnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected column %q to exist on table %q", column, table)
	}
	return nil
}

// AssertRecordExists fails unless at least one row matches the conditions.
func (c *Checker) AssertRecordExists(ctx context.Context, table string, where map[string]any) error {
	count, err := c.RecordCount(ctx, table, where)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("expected a record in %s matching %v, found none", table, where)
	}
	return nil
}

// AssertRecordNotExists fails if any row matches the conditions.
func (c *Checker) AssertRecordNotExists(ctx context.Context, table string, where map[string]any) error {
	count, err := c.RecordCount(ctx, table, where)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("expected no record in %s matching %v, found %d", table, where, count)
	}
	return nil
}

// AssertRecordCount fails unless exactly want rows match the conditions.
func (c *Checker) AssertRecordCount(ctx context.Context, table string, where map[string]any, want int64) error {
	count, err := c.RecordCount(ctx, table, where)
	if err != nil {
		return err
	}
	if count != want {
		return fmt.Errorf("expected %d records in %s matching %v, found %d", want, table, where, count)
	}
	return nil
}

// AssertFieldValue fails unless the single row matching the conditions has
// field equal to want.
func (c *Checker) AssertFieldValue(ctx context.Context, table string, where map[string]any, field string, want any) error {
	q := Query{Table: table, Fields: []string{field}, Where: where, Limit: 1}
	rows, err := c.QueryRows(ctx, q.SQL())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("expected a record in %s matching %v, found none", table, where)
	}
	got := rows[0][field]
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
		return fmt.Errorf("field %q in %s: expected %v, got %v", field, table, want, got)
	}
	return nil
}
