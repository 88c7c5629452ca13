package user

import (
	"context"
	"fmt"
	"time"

	"pte/internal/db"
)

// Store reads and seeds user rows directly in the database, bypassing the
// API, so tests can verify side effects and prepare fixtures.
type Store struct {
	checker *db.Checker
}

// NewStore wraps a database checker.
func NewStore(checker *db.Checker) *Store {
	return &Store{checker: checker}
}

// Checker exposes the underlying database checker for generic assertions.
func (s *Store) Checker() *db.Checker { return s.checker }

// RowByID returns the user row with the given id, or nil when absent.
func (s *Store) RowByID(ctx context.Context, id int) (map[string]any, error) {
	return s.one(ctx, map[string]any{"id": id})
}

// RowByEmail returns the user row with the given email, or nil when absent.
func (s *Store) RowByEmail(ctx context.Context, email string) (map[string]any, error) {
	return s.one(ctx, map[string]any{"email": email})
}

func (s *Store) one(ctx context.Context, where map[string]any) (map[string]any, error) {
	q := db.Query{Table: UsersTable, Where: where, Limit: 1}
	rows, err := s.checker.QueryRows(ctx, q.SQL())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// RowsByName returns user rows with the exact name.
func (s *Store) RowsByName(ctx context.Context, name string) ([]map[string]any, error) {
	q := db.Query{Table: UsersTable, Where: map[string]any{"name": name}}
	return s.checker.QueryRows(ctx, q.SQL())
}

// RowsByAgeRange returns user rows whose age lies within [min, max].
func (s *Store) RowsByAgeRange(ctx context.Context, min, max int) ([]map[string]any, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE age >= %d AND age <= %d ORDER BY age", UsersTable, min, max)
	return s.checker.QueryRows(ctx, sql)
}

// AllRows returns user rows ordered by id, optionally paginated.
func (s *Store) AllRows(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	q := db.Query{Table: UsersTable, OrderBy: "id", Limit: limit, Offset: offset}
	return s.checker.QueryRows(ctx, q.SQL())
}

// Count returns the number of user rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.checker.TableCount(ctx, UsersTable)
}

// CreateTestUser inserts a row with fresh timestamps and returns the
// affected row count.
func (s *Store) CreateTestUser(ctx context.Context, name, email string, age *int) (int64, error) {
	now := time.Now()
	data := map[string]any{
		"name":       name,
		"email":      email,
		"created_at": now,
		"updated_at": now,
	}
	if age != nil {
		data["age"] = *age
	}
	return s.checker.Exec(ctx, db.BuildInsert(UsersTable, data))
}

// UpdateTestUser updates the given fields of a row, refreshing updated_at.
func (s *Store) UpdateTestUser(ctx context.Context, id int, fields map[string]any) (int64, error) {
	data := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data["updated_at"] = time.Now()
	return s.checker.Exec(ctx, db.BuildUpdate(UsersTable, data, map[string]any{"id": id}))
}

// DeleteTestUser removes a row.
func (s *Store) DeleteTestUser(ctx context.Context, id int) (int64, error) {
	return s.checker.Exec(ctx, db.BuildDelete(UsersTable, map[string]any{"id": id}))
}

// CleanupTestUsers removes rows seeded by tests, identified by the
// test@example.com marker in the email.
func (s *Store) CleanupTestUsers(ctx context.Context) (int64, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE email LIKE '%%test@example.com%%'", UsersTable)
	return s.checker.Exec(ctx, sql)
}
