package user

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pte/internal/api"
	"pte/internal/retry"
	"pte/pkg/logging"
)

// Operations turns raw HTTP calls into domain-level actions against the
// user service. Every call retries transport failures up to the client's
// retry budget and logs each attempt under the current LogID.
type Operations struct {
	client *api.Client
	logger *logging.Logger
}

// NewOperations wraps an API client.
func NewOperations(client *api.Client) *Operations {
	return &Operations{client: client, logger: logging.Default()}
}

// NewOperationsWithLogger wraps an API client with an explicit logger.
func NewOperationsWithLogger(client *api.Client, logger *logging.Logger) *Operations {
	return &Operations{client: client, logger: logger}
}

// request runs one HTTP call with transport-level retries. Non-2xx
// responses are not retried here; they become APIErrors for the caller.
func (o *Operations) request(ctx context.Context, fn func(context.Context) (*api.Response, error)) (*api.Response, error) {
	return retry.DoValue(ctx, fn, nil,
		retry.WithMaxAttempts(o.client.RetryCount()),
		retry.WithBaseDelay(500*time.Millisecond),
		retry.WithLogger(o.logger),
	)
}

// apiError extracts the error message from a failed response.
func apiError(resp *api.Response) error {
	msg := "request failed"
	if m, err := resp.JSONMap(); err == nil {
		if s, ok := m["error"].(string); ok && s != "" {
			msg = s
		}
	}
	return &APIError{Message: msg, StatusCode: resp.StatusCode}
}

// GetAllUsers fetches the full user collection.
func (o *Operations) GetAllUsers(ctx context.Context) (*UserList, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Get(ctx, EndpointUsers, nil)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusOK {
		return nil, apiError(resp)
	}
	var list UserList
	if err := resp.JSON(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetUserByID fetches one user.
func (o *Operations) GetUserByID(ctx context.Context, id int) (*User, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Get(ctx, EndpointUserByID(id), nil)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusOK {
		return nil, apiError(resp)
	}
	var u User
	if err := resp.JSON(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a user and expects a 201.
func (o *Operations) CreateUser(ctx context.Context, req NewUserRequest) (*User, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Post(ctx, EndpointUsers, req)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusCreated {
		return nil, apiError(resp)
	}
	var u User
	if err := resp.JSON(&u); err != nil {
		return nil, err
	}
	o.logger.Info("created user %d (%s)", u.ID, u.Email)
	return &u, nil
}

// UpdateUser applies a partial update to a user.
func (o *Operations) UpdateUser(ctx context.Context, id int, fields map[string]any) (*User, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Put(ctx, EndpointUserByID(id), fields)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusOK {
		return nil, apiError(resp)
	}
	var u User
	if err := resp.JSON(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a user.
func (o *Operations) DeleteUser(ctx context.Context, id int) error {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Delete(ctx, EndpointUserByID(id), nil)
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != api.StatusOK {
		return apiError(resp)
	}
	return nil
}

// GetUserByEmail finds a user by exact email, or nil when absent.
func (o *Operations) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	list, err := o.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list.Users {
		if list.Users[i].Email == email {
			return &list.Users[i], nil
		}
	}
	return nil, nil
}

// SearchUsersByName returns users whose name contains the query,
// case-insensitively.
func (o *Operations) SearchUsersByName(ctx context.Context, query string) ([]User, error) {
	list, err := o.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var matched []User
	for _, u := range list.Users {
		if strings.Contains(strings.ToLower(u.Name), q) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

// GetUsersByAgeRange returns users whose age lies within [min, max].
// Users without an age are skipped.
func (o *Operations) GetUsersByAgeRange(ctx context.Context, min, max int) ([]User, error) {
	list, err := o.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	var matched []User
	for _, u := range list.Users {
		if u.Age == nil {
			continue
		}
		if *u.Age >= min && *u.Age <= max {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

// HealthStatus fetches the service health document.
func (o *Operations) HealthStatus(ctx context.Context) (map[string]any, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Get(ctx, EndpointHealth, nil)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusOK {
		return nil, apiError(resp)
	}
	return resp.JSONMap()
}

// Healthy reports whether the service declares itself healthy.
func (o *Operations) Healthy(ctx context.Context) bool {
	status, err := o.HealthStatus(ctx)
	if err != nil {
		return false
	}
	return status["status"] == MsgHealthy
}

// Stats fetches the service statistics document.
func (o *Operations) Stats(ctx context.Context) (map[string]any, error) {
	resp, err := o.request(ctx, func(ctx context.Context) (*api.Response, error) {
		return o.client.Get(ctx, EndpointStats, nil)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != api.StatusOK {
		return nil, apiError(resp)
	}
	return resp.JSONMap()
}

// TestConnection checks the service root responds with a message field.
func (o *Operations) TestConnection(ctx context.Context) error {
	resp, err := o.client.Get(ctx, EndpointRoot, url.Values{})
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	if resp.StatusCode != api.StatusOK {
		return apiError(resp)
	}
	m, err := resp.JSONMap()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	if _, ok := m["message"]; !ok {
		return fmt.Errorf("connection test failed: no message field in root response")
	}
	return nil
}

// CleanupTestData deletes every user carrying the test email marker and
// returns how many were removed.
func (o *Operations) CleanupTestData(ctx context.Context) (int, error) {
	list, err := o.GetAllUsers(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, u := range list.Users {
		if !IsTestEmail(u.Email) {
			continue
		}
		if err := o.DeleteUser(ctx, u.ID); err != nil {
			o.logger.Warn("cleanup: failed to delete user %d: %v", u.ID, err)
			continue
		}
		deleted++
	}
	o.logger.Info("cleanup removed %d test users", deleted)
	return deleted, nil
}
