package user

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pte/internal/db"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewStore(db.NewChecker(conn, "test_db")), mock
}

func userRow(id int, name, email string, age int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "age"}).
		AddRow(id, []byte(name), []byte(email), age)
}

func TestRowByID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = 1 LIMIT 1`).
		WillReturnRows(userRow(1, "John Smith", "john.smith@example.com", 25))

	row, err := store.RowByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "John Smith", row["name"])
}

func TestRowByIDMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = 999 LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	row, err := store.RowByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRowByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE email = 'jane.doe@example.com' LIMIT 1`).
		WillReturnRows(userRow(2, "Jane Doe", "jane.doe@example.com", 30))

	row, err := store.RowByEmail(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Jane Doe", row["name"])
}

func TestRowsByAgeRange(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE age >= 26 AND age <= 30 ORDER BY age`).
		WillReturnRows(userRow(3, "Mike Johnson", "mike.johnson@example.com", 28).
			AddRow(2, []byte("Jane Doe"), []byte("jane.doe@example.com"), 30))

	rows, err := store.RowsByAgeRange(context.Background(), 26, 30)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAllRowsPaginated(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users ORDER BY id LIMIT 2 OFFSET 1`).
		WillReturnRows(userRow(2, "Jane Doe", "jane.doe@example.com", 30))

	rows, err := store.AllRows(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateTestUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO users \(age, created_at, email, name, updated_at\) VALUES`).
		WillReturnResult(sqlmock.NewResult(4, 1))

	affected, err := store.CreateTestUser(context.Background(),
		"Temp User", "temp.test@example.com", IntPtr(20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTestUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE users SET name = 'John Updated', updated_at = '.+' WHERE id = 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := store.UpdateTestUser(context.Background(), 1,
		map[string]any{"name": "John Updated"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestDeleteTestUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = 3`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := store.DeleteTestUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestCleanupTestUsers(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM users WHERE email LIKE '%test@example.com%'`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := store.CleanupTestUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}

func TestVerifyUserCreated(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE email = 'new.test@example.com' AND id = 4 AND name = 'New Person'`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))

	v := NewVerifier(store)
	err := v.VerifyUserCreated(context.Background(), &User{
		ID: 4, Name: "New Person", Email: "new.test@example.com",
	})
	assert.NoError(t, err)
}

func TestVerifyUserUpdatedSkipsUpdatedAt(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = 1 LIMIT 1`).
		WillReturnRows(userRow(1, "John Updated", "john.smith@example.com", 25))

	v := NewVerifier(store)
	err := v.VerifyUserUpdated(context.Background(), 1, map[string]any{
		"name":       "John Updated",
		"updated_at": "2020-01-01 00:00:00",
	})
	assert.NoError(t, err)
}

func TestVerifyUserUpdatedMismatch(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = 1 LIMIT 1`).
		WillReturnRows(userRow(1, "John Smith", "john.smith@example.com", 25))

	v := NewVerifier(store)
	err := v.VerifyUserUpdated(context.Background(), 1, map[string]any{"name": "John Updated"})
	assert.ErrorContains(t, err, `field "name"`)
}

func TestVerifyUserDeleted(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users WHERE id = 3`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	v := NewVerifier(store)
	assert.NoError(t, v.VerifyUserDeleted(context.Background(), 3))
}

func TestVerifyEmailUniqueExcludesID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id FROM users WHERE email = 'jane.doe@example.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	v := NewVerifier(store)
	assert.NoError(t, v.VerifyEmailUnique(context.Background(), "jane.doe@example.com", 2))
}

func TestVerifyEmailUniqueQuotesEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id FROM users WHERE email = 'o''brien.test@example.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	v := NewVerifier(store)
	assert.NoError(t, v.VerifyEmailUnique(context.Background(), "o'brien.test@example.com", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailUniqueFailsOnDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id FROM users WHERE email = 'dup@example.com'`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2).AddRow(7))

	v := NewVerifier(store)
	err := v.VerifyEmailUnique(context.Background(), "dup@example.com", 0)
	assert.ErrorContains(t, err, "to be unique")
}

func TestVerifyCountChanges(t *testing.T) {
	store, mock := newMockStore(t)
	v := NewVerifier(store)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(4))
	assert.NoError(t, v.VerifyCountIncreased(ctx, 3, 1))

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(2))
	assert.NoError(t, v.VerifyCountDecreased(ctx, 3, 1))

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(3))
	assert.NoError(t, v.VerifyCountUnchanged(ctx, 3))

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(3))
	assert.ErrorContains(t, v.VerifyCountIncreased(ctx, 3, 1), "expected user count 4")
}
