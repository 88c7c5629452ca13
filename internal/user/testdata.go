package user

// Canned request payloads shared by the test suites and the example
// scenarios.
var (
	ValidUser1 = NewUserRequest{Name: "John Smith", Email: "john.smith@example.com", Age: IntPtr(25)}
	ValidUser2 = NewUserRequest{Name: "Jane Doe", Email: "jane.doe@example.com", Age: IntPtr(30)}
	ValidUser3 = NewUserRequest{Name: "Mike Johnson", Email: "mike.johnson@example.com", Age: IntPtr(28)}

	// Invalid payloads, each broken in one way.
	InvalidUserMissingName  = map[string]any{"email": "no.name@example.com", "age": 22}
	InvalidUserMissingEmail = map[string]any{"name": "No Email", "age": 22}
	InvalidUserBadEmail     = map[string]any{"name": "Bad Email", "email": "not-an-email", "age": 22}

	// Partial update payloads.
	UpdateNameOnly = map[string]any{"name": "John Updated"}
	UpdateAgeOnly  = map[string]any{"age": 26}
	UpdateFull     = map[string]any{"name": "John Updated", "email": "john.updated@example.com", "age": 26}
)

// IDs seeded by the service fixtures.
var (
	ExistingUserIDs    = []int{1, 2, 3}
	NonExistingUserIDs = []int{999, 0, -1}
)
