// Package user is the business operations layer for the user-management
// service: it composes API client calls into domain-level CRUD actions,
// validates request and response shapes, and verifies database side effects.
package user

import (
	"fmt"
	"strings"
)

// Endpoint paths of the user service.
const (
	EndpointRoot   = "/"
	EndpointUsers  = "/api/users"
	EndpointHealth = "/api/health"
	EndpointStats  = "/api/stats"

	// UsersTable is the backing table verified by the database checks.
	UsersTable = "users"
)

// EndpointUserByID renders the path for a single user.
func EndpointUserByID(id int) string {
	return fmt.Sprintf("%s/%d", EndpointUsers, id)
}

// Canonical error messages returned by the service.
const (
	MsgUserNotFound      = "User not found"
	MsgEmailExists       = "Email already exists"
	MsgMissingFields     = "Missing required fields"
	MsgInvalidJSON       = "Invalid JSON data"
	MsgUserDeleted       = "User deleted successfully"
	MsgHealthy           = "healthy"
)

// TestEmailMarker identifies users created by test runs. Cleanup only ever
// touches users whose email carries this marker.
const TestEmailMarker = "test@"

// IsTestEmail reports whether an email belongs to a test-created user.
func IsTestEmail(email string) bool {
	return strings.Contains(email, TestEmailMarker)
}

// RequiredFields must be present when creating a user.
var RequiredFields = []string{"name", "email"}

// OptionalFields may be present when creating a user.
var OptionalFields = []string{"age"}

// User is one record of the user service.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Age       *int   `json:"age,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// UserList is the shape of the collection endpoint.
type UserList struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}

// NewUserRequest is the payload for creating a user.
type NewUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age,omitempty"`
}

// APIError is a failed exchange with the service: the message from the
// response's error field plus the status code.
type APIError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IntPtr is a convenience for optional ages in literals and tests.
func IntPtr(v int) *int { return &v }
