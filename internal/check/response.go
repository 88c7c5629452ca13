package check

import (
	"fmt"
	"strings"

	"pte/internal/api"
)

// StatusCode fails unless the response carries the expected status.
func StatusCode(resp *api.Response, want int) error {
	if resp.StatusCode != want {
		return fmt.Errorf("expected status code %d, got %d (body: %s)",
			want, resp.StatusCode, previewBody(resp))
	}
	return nil
}

// JSONField fails unless the response body decodes to a JSON object
// carrying the given field.
func JSONField(resp *api.Response, field string) error {
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	return FieldExists(m, field)
}

// JSONFieldValue fails unless the decoded body has field equal to want.
func JSONFieldValue(resp *api.Response, field string, want any) error {
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	return FieldValue(m, field, want)
}

// JSONStructure fails unless the decoded body has all required fields.
func JSONStructure(resp *api.Response, required ...string) error {
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	return Structure(m, required...)
}

// BodyContains fails unless the raw response body holds the substring.
func BodyContains(resp *api.Response, substring string) error {
	if !strings.Contains(string(resp.Body), substring) {
		return fmt.Errorf("expected response body to contain %q (body: %s)",
			substring, previewBody(resp))
	}
	return nil
}

// ErrorResponse fails unless the response is a well-formed error: the
// expected status plus a non-empty "error" field in the body.
func ErrorResponse(resp *api.Response, wantStatus int) error {
	if err := StatusCode(resp, wantStatus); err != nil {
		return err
	}
	m, err := resp.JSONMap()
	if err != nil {
		return err
	}
	if err := FieldExists(m, "error"); err != nil {
		return err
	}
	return NotEmpty(m["error"])
}

// ErrorMessage fails unless the response is an error response whose
// "error" field equals the expected message.
func ErrorMessage(resp *api.Response, wantStatus int, wantMessage string) error {
	if err := ErrorResponse(resp, wantStatus); err != nil {
		return err
	}
	m, _ := resp.JSONMap()
	return FieldValue(m, "error", wantMessage)
}

func previewBody(resp *api.Response) string {
	const max = 200
	if len(resp.Body) > max {
		return string(resp.Body[:max]) + "..."
	}
	return string(resp.Body)
}
