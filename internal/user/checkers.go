package user

import (
	"fmt"
	"strings"

	"pte/internal/api"
	"pte/internal/check"
)

// CheckUserListResponse verifies the collection endpoint shape: a users
// array and a count matching its length.
func CheckUserListResponse(resp *api.Response) error {
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	if err := check.Structure(m, "users", "count"); err != nil {
		return err
	}
	users, ok := m["users"].([]any)
	if !ok {
		return fmt.Errorf("expected users to be an array, got %T", m["users"])
	}
	return check.FieldValue(m, "count", len(users))
}

// CheckUserResponse verifies a single-user document has the identifying
// fields.
func CheckUserResponse(resp *api.Response) error {
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	return check.Structure(m, "id", "name", "email")
}

// ValidateUserData verifies a user document: required fields present, email
// well-formed, name length within bounds, and age (when present) an integer
// in the valid range.
func ValidateUserData(m map[string]any) error {
	if err := check.Structure(m, "id", "name", "email"); err != nil {
		return err
	}
	name, _ := m["name"].(string)
	if err := ValidateName(name); err != nil {
		return err
	}
	email, _ := m["email"].(string)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if age, ok := m["age"]; ok && age != nil {
		f, isNum := age.(float64)
		if !isNum {
			if i, isInt := age.(int); isInt {
				f, isNum = float64(i), true
			}
		}
		if !isNum || f != float64(int(f)) {
			return fmt.Errorf("age must be an integer, got %v", age)
		}
		if err := ValidateAge(int(f)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCreatePayload verifies the payload for creating a user carries
// every required field.
func ValidateCreatePayload(m map[string]any) error {
	var missing []string
	for _, field := range RequiredFields {
		v, ok := m[field]
		if !ok || v == "" || v == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %v", MsgMissingFields, missing)
	}
	email, _ := m["email"].(string)
	return ValidateEmail(email)
}

// ValidateEmail checks the address has a non-empty local part and a domain
// with a dot.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 {
		return fmt.Errorf("invalid email %q: missing local part or @", email)
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid email %q: domain has no dot", email)
	}
	return nil
}

// ValidateAge checks the age lies in the accepted range.
func ValidateAge(age int) error {
	if age < 0 || age > 150 {
		return fmt.Errorf("age %d out of range [0, 150]", age)
	}
	return nil
}

// ValidateName checks the name length lies within the schema bounds.
func ValidateName(name string) error {
	if len(name) < 1 || len(name) > 50 {
		return fmt.Errorf("name length %d out of range [1, 50] (%q)", len(name), name)
	}
	return nil
}

// CheckNotFound verifies a 404 with the canonical message.
func CheckNotFound(resp *api.Response) error {
	return check.ErrorMessage(resp, api.StatusNotFound, MsgUserNotFound)
}

// CheckEmailConflict verifies a 409 with the canonical message.
func CheckEmailConflict(resp *api.Response) error {
	return check.ErrorMessage(resp, api.StatusConflict, MsgEmailExists)
}

// CheckMissingFields verifies a 400 whose error names the missing fields.
func CheckMissingFields(resp *api.Response) error {
	if err := check.ErrorResponse(resp, api.StatusBadRequest); err != nil {
		return err
	}
	m, _ := resp.JSONMap()
	msg, _ := m["error"].(string)
	if !strings.Contains(msg, MsgMissingFields) {
		return fmt.Errorf("expected error mentioning %q, got %q", MsgMissingFields, msg)
	}
	return nil
}
