package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pte/internal/config"
)

func newMockChecker(t *testing.T) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewChecker(conn, "test_db"), mock
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.MySQLSettings{
		Host:     "127.0.0.1",
		Port:     3306,
		Username: "root",
		Password: "root123",
		Database: "test_db",
		Charset:  "utf8mb4",
	})
	assert.Equal(t,
		"root:root123@tcp(127.0.0.1:3306)/test_db?charset=utf8mb4&parseTime=true&timeout=10s",
		dsn)
}

func TestQueryRowsConvertsBytes(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery("SELECT \\* FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(1, []byte("John Smith"), []byte("john.smith@example.com")))

	rows, err := c.QueryRows(context.Background(), "SELECT * FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John Smith", rows[0]["name"])
	assert.Equal(t, "john.smith@example.com", rows[0]["email"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRowsError(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery("SELECT \\* FROM missing").WillReturnError(assert.AnError)

	_, err := c.QueryRows(context.Background(), "SELECT * FROM missing")
	assert.ErrorContains(t, err, "query failed")
}

func TestExecReturnsAffectedRows(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectExec("DELETE FROM users WHERE id = 3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := c.Exec(context.Background(), "DELETE FROM users WHERE id = 3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestRecordCount(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE email = 'x@y.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(2))

	count, err := c.RecordCount(context.Background(), "users", map[string]any{"email": "x@y.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTableExists(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.tables").
		WithArgs("test_db", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := c.TableExists(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestColumnExists(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.columns").
		WithArgs("test_db", "users", "email").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := c.ColumnExists(context.Background(), "users", "email")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssertRecordExists(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE id = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))

	assert.NoError(t, c.AssertRecordExists(context.Background(), "users", map[string]any{"id": 1}))
}

func TestAssertRecordExistsFails(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE id = 999`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	err := c.AssertRecordExists(context.Background(), "users", map[string]any{"id": 999})
	assert.ErrorContains(t, err, "found none")
}

func TestAssertRecordNotExists(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE id = 999`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	assert.NoError(t, c.AssertRecordNotExists(context.Background(), "users", map[string]any{"id": 999}))
}

func TestAssertRecordCountMismatch(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(3))

	err := c.AssertRecordCount(context.Background(), "users", nil, 5)
	assert.ErrorContains(t, err, "expected 5 records")
}

func TestAssertFieldValue(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT name FROM users WHERE id = 1 LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("John Smith")))

	assert.NoError(t, c.AssertFieldValue(context.Background(), "users",
		map[string]any{"id": 1}, "name", "John Smith"))
}

func TestAssertFieldValueMismatch(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery(`SELECT name FROM users WHERE id = 1 LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Jane Doe")))

	err := c.AssertFieldValue(context.Background(), "users",
		map[string]any{"id": 1}, "name", "John Smith")
	assert.ErrorContains(t, err, "expected John Smith, got Jane Doe")
}

func TestTableStructure(t *testing.T) {
	c, mock := newMockChecker(t)
	mock.ExpectQuery("DESCRIBE users").WillReturnRows(
		sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow([]byte("id"), []byte("int"), []byte("NO"), []byte("PRI"), nil, []byte("auto_increment")).
			AddRow([]byte("email"), []byte("varchar(100)"), []byte("NO"), []byte("UNI"), nil, []byte("")))

	cols, err := c.TableStructure(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0]["Field"])
	assert.Equal(t, "varchar(100)", cols[1]["Type"])
}
