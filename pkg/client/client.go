// Package client is the Go counterpart of the Taskify frontend's data layer:
// a session-cookie HTTP client for the API plus a TaskBoard view state that
// only ever reflects server-confirmed results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/m1moraru/Taskify/internal/models"

	"github.com/gofrs/uuid"
)

// APIError carries the status code and message of a failed API call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// User is the profile summary the API returns; the password hash never
// crosses the wire.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// NewTask is the payload for task creation. Zero-value Priority and Status
// fall back to the server defaults (Low, To-Do).
type NewTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	Status      models.Status   `json:"status,omitempty"`
	Deadline    string          `json:"deadline,omitempty"`
}

// TaskPatch mirrors the server's partial-update payload: only non-nil
// fields are sent. A pointer to an empty Deadline string clears the stored
// deadline; a nil Deadline leaves it untouched.
type TaskPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *models.Priority `json:"priority,omitempty"`
	Status      *models.Status   `json:"status,omitempty"`
	Deadline    *string          `json:"deadline,omitempty"`
	Archived    *bool            `json:"archived,omitempty"`
}

// Client talks to the Taskify API. The cookie jar holds the session cookie
// set by Login, so every subsequent call is authenticated the same way the
// browser client is.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(resp.Body)
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Details != "":
			apiErr.Message = body.Details
		case body.Message != "":
			apiErr.Message = body.Message
		default:
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func (c *Client) Register(ctx context.Context, firstName, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users/register", map[string]string{
		"first_name": firstName,
		"email":      email,
		"password":   password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and stores the session cookie in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+id, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+id, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+id, nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, task NewTask) (*models.Task, error) {
	var created models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ArchiveTask flags the task archived; archiving is just a field update,
// there is no dedicated endpoint.
func (c *Client) ArchiveTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	archived := true
	return c.UpdateTask(ctx, id, TaskPatch{Archived: &archived})
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil, nil)
}
