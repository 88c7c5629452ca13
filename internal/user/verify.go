package user

import (
	"context"
	"fmt"

	"pte/internal/db"
)

// Verifier asserts database state after API operations.
type Verifier struct {
	store *Store
}

// NewVerifier wraps a store.
func NewVerifier(store *Store) *Verifier {
	return &Verifier{store: store}
}

// VerifyUserCreated checks a row exists matching the created user's
// identifying fields.
func (v *Verifier) VerifyUserCreated(ctx context.Context, u *User) error {
	where := map[string]any{"name": u.Name, "email": u.Email}
	if u.ID > 0 {
		where["id"] = u.ID
	}
	return v.store.checker.AssertRecordExists(ctx, UsersTable, where)
}

// VerifyUserUpdated checks the row carries every updated field value.
// updated_at is skipped: the service refreshes it on write.
func (v *Verifier) VerifyUserUpdated(ctx context.Context, id int, fields map[string]any) error {
	row, err := v.store.RowByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("expected user %d to exist after update", id)
	}
	for field, want := range fields {
		if field == "updated_at" {
			continue
		}
		got := row[field]
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return fmt.Errorf("user %d field %q: expected %v, got %v", id, field, want, got)
		}
	}
	return nil
}

// VerifyUserDeleted checks no row with the id remains.
func (v *Verifier) VerifyUserDeleted(ctx context.Context, id int) error {
	return v.store.checker.AssertRecordNotExists(ctx, UsersTable, map[string]any{"id": id})
}

// VerifyEmailUnique checks at most one row carries the email; excludeID,
// when positive, ignores that row (useful right after an update).
func (v *Verifier) VerifyEmailUnique(ctx context.Context, email string, excludeID int) error {
	rows, err := v.store.checker.QueryRows(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE email = %s", UsersTable, db.Literal(email)))
	if err != nil {
		return err
	}
	count := 0
	for _, row := range rows {
		if excludeID > 0 && fmt.Sprintf("%v", row["id"]) == fmt.Sprintf("%d", excludeID) {
			continue
		}
		count++
	}
	if count > 0 {
		return fmt.Errorf("expected email %q to be unique, found %d other rows", email, count)
	}
	return nil
}

// VerifyCountIncreased checks the table grew by delta since before.
func (v *Verifier) VerifyCountIncreased(ctx context.Context, before, delta int64) error {
	return v.verifyCountChanged(ctx, before, delta)
}

// VerifyCountDecreased checks the table shrank by delta since before.
func (v *Verifier) VerifyCountDecreased(ctx context.Context, before, delta int64) error {
	return v.verifyCountChanged(ctx, before, -delta)
}

// VerifyCountUnchanged checks the table row count did not move.
func (v *Verifier) VerifyCountUnchanged(ctx context.Context, before int64) error {
	return v.verifyCountChanged(ctx, before, 0)
}

func (v *Verifier) verifyCountChanged(ctx context.Context, before, delta int64) error {
	now, err := v.store.Count(ctx)
	if err != nil {
		return err
	}
	want := before + delta
	if now != want {
		return fmt.Errorf("expected user count %d (was %d, delta %+d), got %d", want, before, delta, now)
	}
	return nil
}
