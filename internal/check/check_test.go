package check

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pte/internal/api"
)

func TestFieldChecks(t *testing.T) {
	m := map[string]any{"id": float64(1), "name": "John Smith"}

	assert.NoError(t, FieldExists(m, "id"))
	assert.ErrorContains(t, FieldExists(m, "email"), `field "email"`)

	assert.NoError(t, FieldAbsent(m, "email"))
	assert.ErrorContains(t, FieldAbsent(m, "id"), "to be absent")

	assert.NoError(t, FieldValue(m, "id", 1))
	assert.ErrorContains(t, FieldValue(m, "id", 2), "expected 2, got 1")
	assert.ErrorContains(t, FieldValue(m, "missing", 1), "to exist")
}

func TestStructure(t *testing.T) {
	m := map[string]any{"id": 1, "name": "x", "email": "x@y.com"}
	assert.NoError(t, Structure(m, "id", "name", "email"))

	err := Structure(m, "id", "age", "created_at")
	assert.ErrorContains(t, err, "missing required fields")
	assert.ErrorContains(t, err, "age")
	assert.ErrorContains(t, err, "created_at")
}

func TestEqualityChecks(t *testing.T) {
	assert.NoError(t, Equal(float64(5), 5))
	assert.Error(t, Equal("a", "b"))
	assert.NoError(t, NotEqual(1, 2))
	assert.Error(t, NotEqual("same", "same"))
}

func TestNilAndEmptyChecks(t *testing.T) {
	assert.Error(t, NotNil(nil))
	assert.Error(t, NotNil((*int)(nil)))
	assert.NoError(t, NotNil(0))

	assert.Error(t, NotEmpty(""))
	assert.Error(t, NotEmpty([]int{}))
	assert.Error(t, NotEmpty(map[string]any{}))
	assert.NoError(t, NotEmpty("x"))
	assert.NoError(t, NotEmpty([]int{1}))
}

func TestLengthChecks(t *testing.T) {
	assert.NoError(t, Length([]int{1, 2, 3}, 3))
	assert.ErrorContains(t, Length("ab", 3), "expected length 3, got 2")
	assert.ErrorContains(t, Length(42, 1), "has no length")

	assert.NoError(t, LengthGreater([]int{1, 2}, 1))
	assert.Error(t, LengthGreater([]int{1}, 1))
}

func TestNumericComparisons(t *testing.T) {
	assert.NoError(t, Greater(5, 3))
	assert.Error(t, Greater(3, 5))
	assert.NoError(t, GreaterOrEqual(5, 5))
	assert.NoError(t, Less(float64(2.5), 3))
	assert.NoError(t, LessOrEqual(3, 3))
	assert.ErrorContains(t, Greater("five", 3), "expected numeric values")
}

func TestInRange(t *testing.T) {
	assert.NoError(t, InRange(25, 0, 150))
	assert.Error(t, InRange(151, 0, 150))
	assert.Error(t, InRange(-1, 0, 150))
	assert.NoError(t, InRange(float64(0), 0, 150))
	assert.ErrorContains(t, InRange("x", 0, 1), "expected numeric value")
}

func TestStringLengthBetween(t *testing.T) {
	assert.NoError(t, StringLengthBetween("John", 1, 50))
	assert.Error(t, StringLengthBetween("", 1, 50))
}

func TestContainsChecks(t *testing.T) {
	assert.NoError(t, Contains("hello world", "world"))
	assert.Error(t, Contains("hello", "bye"))
	assert.NoError(t, Contains([]any{1, 2, 3}, 2))
	assert.NoError(t, Contains(map[string]any{"users": nil}, "users"))
	assert.NoError(t, NotContains([]any{"a"}, "b"))
	assert.Error(t, NotContains("abc", "b"))
}

func TestTypeChecks(t *testing.T) {
	assert.NoError(t, IsType("s", ""))
	assert.NoError(t, IsType(float64(1), float64(0)))
	assert.Error(t, IsType(1, ""))

	assert.NoError(t, True(true))
	assert.Error(t, True(false))
	assert.Error(t, True("true"))
	assert.NoError(t, False(false))
	assert.Error(t, False(true))
}

func TestStatusCode(t *testing.T) {
	resp := &api.Response{StatusCode: 200, Body: []byte(`{}`)}
	assert.NoError(t, StatusCode(resp, 200))
	assert.ErrorContains(t, StatusCode(resp, 201), "expected status code 201, got 200")
}

func TestJSONFieldChecks(t *testing.T) {
	resp := &api.Response{
		StatusCode: 200,
		Body:       []byte(`{"users": [], "count": 0}`),
	}
	assert.NoError(t, JSONField(resp, "users"))
	assert.Error(t, JSONField(resp, "total"))
	assert.NoError(t, JSONFieldValue(resp, "count", 0))
	assert.NoError(t, JSONStructure(resp, "users", "count"))
	assert.Error(t, JSONStructure(resp, "users", "missing"))
}

func TestBodyContains(t *testing.T) {
	resp := &api.Response{Body: []byte(`{"message": "User API Test Service"}`)}
	assert.NoError(t, BodyContains(resp, "User API"))
	assert.Error(t, BodyContains(resp, "absent"))
}

func TestErrorResponse(t *testing.T) {
	notFound := &api.Response{StatusCode: 404, Body: []byte(`{"error": "User not found"}`)}
	assert.NoError(t, ErrorResponse(notFound, 404))
	assert.NoError(t, ErrorMessage(notFound, 404, "User not found"))
	assert.Error(t, ErrorMessage(notFound, 404, "Something else"))

	noField := &api.Response{StatusCode: 404, Body: []byte(`{"message": "x"}`)}
	assert.Error(t, ErrorResponse(noField, 404))

	emptyErr := &api.Response{StatusCode: 400, Body: []byte(`{"error": ""}`)}
	assert.Error(t, ErrorResponse(emptyErr, 400))
}
